package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/freightflow/internal/classification"
	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/model"
)

func fromYAML(t *testing.T, content string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(content)))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, []float64{20}, cfg.Revenue.ExcludeStatus)
	assert.False(t, cfg.Revenue.Percent)
	assert.Equal(t, classification.DefaultRuleSet(), cfg.Classification)
	assert.Equal(t, "Datum", cfg.Categories.DateField)

	rep := cfg.CategoriesReport()
	assert.Equal(t, "Klant", rep.CustomerField)
	assert.Equal(t, "LM", rep.MeasureField)
}

func TestLoad_FromFile(t *testing.T) {
	v := fromYAML(t, `
logging:
  level: debug
  format: json
revenue:
  exclude_status: [20, 30]
  percent: true
classification:
  id_field: Zending
  default_category: Rest
  rules:
    - name: low
      category: Laag
      id_min: 1
      id_max: 100
`)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []float64{20, 30}, cfg.Revenue.ExcludeStatus)
	assert.True(t, cfg.Revenue.Percent)

	set := cfg.Classification
	assert.Equal(t, "Zending", set.IDField)
	assert.Equal(t, classification.DefaultTypeField, set.TypeField)
	assert.Equal(t, "Rest", set.DefaultCategory)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, 100.0, *set.Rules[0].IDMax)
	assert.Equal(t, []string{"Laag", "Rest"}, set.Categories())
}

func TestLoad_EmptyRuleListIsKept(t *testing.T) {
	cfg, err := Load(fromYAML(t, "classification:\n  rules: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Classification.Rules)
	assert.Equal(t, classification.CategoryOther, cfg.Classification.DefaultCategory)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "logging:\n  level: loud\n"},
		{"log format", "logging:\n  format: xml\n"},
		{"inverted rule", "classification:\n  rules:\n    - category: X\n      id_min: 10\n      id_max: 1\n"},
		{"unknown condition", "classification:\n  rules:\n    - category: X\n      type_condition: like\n      type_value: Laden\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(fromYAML(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestRulesRoundTrip(t *testing.T) {
	set := classification.DefaultRuleSet()

	data, err := MarshalRules(set)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)
}

func TestLoad_RulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id_field: Verzending-ID
type_field: Type
default_category: Overig
rules:
  - name: export
    category: EXPORT
    id_min: 2400000000
    type_condition: eq
    type_value: Laden
`), 0o600))

	v := viper.New()
	v.Set("categories.rules_file", path)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Len(t, cfg.Classification.Rules, 1)
	assert.Equal(t, model.TypeEqual, cfg.Classification.Rules[0].TypeCondition)
	assert.Equal(t, 2400000000.0, *cfg.Classification.Rules[0].IDMin)
	assert.Nil(t, cfg.Classification.Rules[0].IDMax)
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: {"), 0o600))
	_, err = LoadRules(path)
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}
