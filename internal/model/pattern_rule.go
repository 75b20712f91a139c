package model

import (
	"fmt"

	"github.com/Veraticus/freightflow/internal/common"
)

// TypeConditionType represents how a rule compares the record's type label.
type TypeConditionType string

// Type condition constants.
const (
	TypeAny      TypeConditionType = "any"
	TypeEqual    TypeConditionType = "eq"
	TypeNotEqual TypeConditionType = "ne"
)

// ClassificationRule pairs an identifier range and type condition with a category.
type ClassificationRule struct {
	IDMin         *float64          `json:"id_min,omitempty" mapstructure:"id_min" yaml:"id_min,omitempty"`
	IDMax         *float64          `json:"id_max,omitempty" mapstructure:"id_max" yaml:"id_max,omitempty"`
	Name          string            `json:"name" mapstructure:"name" yaml:"name"`
	Category      string            `json:"category" mapstructure:"category" yaml:"category"`
	TypeCondition TypeConditionType `json:"type_condition" mapstructure:"type_condition" yaml:"type_condition"`
	TypeValue     string            `json:"type_value,omitempty" mapstructure:"type_value" yaml:"type_value,omitempty"`
}

// HasRange reports whether the rule constrains the identifier.
func (r ClassificationRule) HasRange() bool {
	return r.IDMin != nil || r.IDMax != nil
}

// Validate checks a single rule.
func (r ClassificationRule) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("%w: rule %q has no category", common.ErrInvalidRule, r.Name)
	}
	if r.IDMin != nil && r.IDMax != nil && *r.IDMin > *r.IDMax {
		return fmt.Errorf("%w: rule %q has id_min above id_max", common.ErrInvalidRule, r.Name)
	}

	switch r.TypeCondition {
	case TypeAny, "":
	case TypeEqual, TypeNotEqual:
		if r.TypeValue == "" {
			return fmt.Errorf("%w: rule %q compares type without a value", common.ErrInvalidRule, r.Name)
		}
	default:
		return fmt.Errorf("%w: rule %q has unknown type condition %q", common.ErrInvalidRule, r.Name, r.TypeCondition)
	}

	return nil
}

// RuleSet is an ordered list of rules. Earlier rules take priority.
type RuleSet struct {
	IDField         string               `json:"id_field" mapstructure:"id_field" yaml:"id_field"`
	TypeField       string               `json:"type_field" mapstructure:"type_field" yaml:"type_field"`
	DefaultCategory string               `json:"default_category" mapstructure:"default_category" yaml:"default_category"`
	Rules           []ClassificationRule `json:"rules" mapstructure:"rules" yaml:"rules"`
}

// Validate checks the rule set and every rule in it.
func (s RuleSet) Validate() error {
	if s.IDField == "" {
		return fmt.Errorf("%w: id field is required", common.ErrInvalidRule)
	}
	if s.DefaultCategory == "" {
		return fmt.Errorf("%w: default category is required", common.ErrInvalidRule)
	}
	for i, rule := range s.Rules {
		if rule.TypeCondition != TypeAny && rule.TypeCondition != "" && s.TypeField == "" {
			return fmt.Errorf("%w: rule %d (%q) needs a type field", common.ErrInvalidRule, i+1, rule.Name)
		}
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return nil
}

// Categories returns the closed category set in rule order, default last.
func (s RuleSet) Categories() []string {
	seen := make(map[string]bool, len(s.Rules)+1)
	categories := make([]string, 0, len(s.Rules)+1)
	for _, rule := range s.Rules {
		if !seen[rule.Category] {
			seen[rule.Category] = true
			categories = append(categories, rule.Category)
		}
	}
	if !seen[s.DefaultCategory] {
		categories = append(categories, s.DefaultCategory)
	}
	return categories
}
