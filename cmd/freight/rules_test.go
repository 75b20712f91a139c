package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/freightflow/internal/classification"
	"github.com/Veraticus/freightflow/internal/config"
	"github.com/Veraticus/freightflow/internal/model"
)

func TestExplainRule(t *testing.T) {
	set := classification.DefaultRuleSet()

	tests := []struct {
		name     string
		id       string
		label    string
		category string
		detail   string
	}{
		{name: "ICL pickup", id: "2510600000", label: "Laden", category: classification.CategoryICLAfhaal, detail: "ICL pickup"},
		{name: "label is case-insensitive", id: "2510600000", label: "laden", category: classification.CategoryICLAfhaal, detail: "ICL pickup"},
		{name: "TUF import", id: "2450000000", label: "Lossen", category: classification.CategoryTUFImport},
		{name: "outside every range", id: "12345", label: "Laden", category: classification.CategoryOther, detail: "no rule matched"},
		{name: "not a number", id: "ABC", category: classification.CategoryOther, detail: "no rule matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explainRule(set, tt.id, tt.label)
			assert.Contains(t, got, tt.category)
			if tt.detail != "" {
				assert.Contains(t, got, tt.detail)
			}
		})
	}
}

func TestWriteRules(t *testing.T) {
	set := classification.DefaultRuleSet()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRules(&buf, set, "table"))
		for _, r := range set.Rules {
			assert.Contains(t, buf.String(), r.Name)
		}
		assert.Contains(t, buf.String(), "ICL AFH, ICL LEV, TUF EXPORT, TUF IMPORT, Overig")
	})

	t.Run("yaml loads back", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRules(&buf, set, "yaml"))

		path := writeFile(t, "rules.yaml", buf.String())
		loaded, err := config.LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, set, loaded)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRules(&buf, set, "json"))

		var decoded model.RuleSet
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Len(t, decoded.Rules, len(set.Rules))
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, writeRules(&buf, set, "xml"))
	})
}

func TestRulesSection(t *testing.T) {
	lo, hi := 10.0, 20.0
	set := model.RuleSet{
		IDField:         "ID",
		TypeField:       "Type",
		DefaultCategory: "Other",
		Rules: []model.ClassificationRule{
			{Name: "low", Category: "Low", IDMin: &lo, IDMax: &hi, TypeCondition: model.TypeNotEqual, TypeValue: "X"},
			{Name: "rest", Category: "Rest"},
		},
	}

	s := rulesSection(set)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "10 - 20", s.Rows[0][2].Display)
	assert.Equal(t, "!= X", s.Rows[0][3].Display)
	assert.Equal(t, "any", s.Rows[1][2].Display)
	assert.Equal(t, "any", s.Rows[1][3].Display)

	empty := rulesSection(model.RuleSet{IDField: "ID", DefaultCategory: "Other"})
	assert.True(t, empty.NoData())
}
