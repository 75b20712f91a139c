package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/freightflow/internal/classification"
	"github.com/Veraticus/freightflow/internal/common"
	"github.com/Veraticus/freightflow/internal/model"
	"github.com/Veraticus/freightflow/internal/report"
)

// Config is the typed application configuration.
type Config struct {
	Logging        LoggingConfig    `mapstructure:"logging"`
	Input          InputConfig      `mapstructure:"input"`
	Revenue        RevenueConfig    `mapstructure:"revenue"`
	Categories     CategoriesConfig `mapstructure:"categories"`
	Classification model.RuleSet    `mapstructure:"classification"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InputConfig controls how input files are read.
type InputConfig struct {
	// Sheet names the worksheet to read; empty means the first one.
	Sheet string `mapstructure:"sheet"`
}

// RevenueConfig holds the revenue report options.
type RevenueConfig struct {
	ExcludeStatus []float64 `mapstructure:"exclude_status"`
	Percent       bool      `mapstructure:"percent"`
}

// CategoriesConfig names the columns of the service-class report.
type CategoriesConfig struct {
	DateField     string `mapstructure:"date_field"`
	CustomerField string `mapstructure:"customer_field"`
	MeasureField  string `mapstructure:"measure_field"`
	// RulesFile replaces the configured rules with a YAML rule set.
	RulesFile string `mapstructure:"rules_file"`
}

// SetDefaults registers the default value of every scalar setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("revenue.exclude_status", []float64{report.DefaultExcludedStatus})
	v.SetDefault("revenue.percent", false)
	v.SetDefault("categories.date_field", report.DefaultCategoryDateField)
	v.SetDefault("categories.customer_field", report.DefaultCategoryCustomerField)
	v.SetDefault("categories.measure_field", report.DefaultCategoryMeasureField)
}

// Load unmarshals and validates the configuration held by v.
// Without configured rules the default service-class rules apply.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	if cfg.Categories.RulesFile != "" {
		rules, err := LoadRules(ExpandPath(cfg.Categories.RulesFile))
		if err != nil {
			return nil, err
		}
		cfg.Classification = rules
	}
	applyRuleDefaults(&cfg.Classification, v.IsSet("classification.rules"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyRuleDefaults fills the fields a partial rule configuration leaves out.
func applyRuleDefaults(set *model.RuleSet, rulesConfigured bool) {
	def := classification.DefaultRuleSet()
	if len(set.Rules) == 0 && !rulesConfigured {
		set.Rules = def.Rules
	}
	if set.IDField == "" {
		set.IDField = def.IDField
	}
	if set.TypeField == "" {
		set.TypeField = def.TypeField
	}
	if set.DefaultCategory == "" {
		set.DefaultCategory = def.DefaultCategory
	}
}

// Validate checks the logging settings and the rule set.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if err := c.Classification.Validate(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.Categories.DateField == "" || c.Categories.CustomerField == "" {
		return fmt.Errorf("%w: categories need a date and a customer field", common.ErrInvalidConfig)
	}
	return nil
}

// CategoriesReport builds the service-class report from the configuration.
func (c *Config) CategoriesReport() *report.Categories {
	return &report.Categories{
		Rules:         c.Classification,
		DateField:     c.Categories.DateField,
		CustomerField: c.Categories.CustomerField,
		MeasureField:  c.Categories.MeasureField,
	}
}

// LoadRules reads a YAML rule set file.
func LoadRules(path string) (model.RuleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return model.RuleSet{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var set model.RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return model.RuleSet{}, fmt.Errorf("%w: rules file %s: %v", common.ErrInvalidConfig, path, err)
	}
	return set, nil
}

// MarshalRules encodes a rule set as YAML in the LoadRules format.
func MarshalRules(set model.RuleSet) ([]byte, error) {
	out, err := yaml.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return out, nil
}
