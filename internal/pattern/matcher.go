// Package pattern evaluates ordered classification rules against records.
package pattern

import (
	"fmt"
	"strings"

	"github.com/Veraticus/freightflow/internal/model"
)

// Rule is an alias to the model.ClassificationRule type for convenience.
type Rule = model.ClassificationRule

// Matcher assigns categories using first-match over an ordered rule set.
type Matcher struct {
	set model.RuleSet
}

// NewMatcher creates a matcher over the given rule set.
// The set should have passed RuleSet.Validate.
func NewMatcher(set model.RuleSet) *Matcher {
	rules := make([]Rule, len(set.Rules))
	copy(rules, set.Rules)
	set.Rules = rules

	return &Matcher{set: set}
}

// RuleSet returns the rules the matcher evaluates.
func (m *Matcher) RuleSet() model.RuleSet {
	return m.set
}

// Classify returns the category of the first matching rule, or the default category.
func (m *Matcher) Classify(rec model.Record) string {
	category, _ := m.Explain(rec)
	return category
}

// Explain returns the category and the rule that produced it.
// The rule is nil when the record fell through to the default category.
func (m *Matcher) Explain(rec model.Record) (string, *Rule) {
	id := rec.Get(m.set.IDField)
	label := ""
	if m.set.TypeField != "" {
		label = rec.Get(m.set.TypeField).String()
	}

	for i := range m.set.Rules {
		rule := &m.set.Rules[i]
		if matchesID(id, *rule) && matchesType(label, *rule) {
			return rule.Category, rule
		}
	}

	return m.set.DefaultCategory, nil
}

// ClassifyAll appends the category field to every record.
func (m *Matcher) ClassifyAll(records []model.Record) ([]model.Record, error) {
	out := make([]model.Record, len(records))
	for i, rec := range records {
		classified, err := rec.With(model.FieldCategory, model.Text(m.Classify(rec)))
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", rec.Origin(), err)
		}
		out[i] = classified
	}
	return out, nil
}

// matchesID checks the identifier against the rule's inclusive range.
// Non-numeric identifiers never satisfy a range.
func matchesID(id model.Value, rule Rule) bool {
	if !rule.HasRange() {
		return true
	}

	n, ok := id.Float()
	if !ok {
		return false
	}
	if rule.IDMin != nil && n < *rule.IDMin {
		return false
	}
	if rule.IDMax != nil && n > *rule.IDMax {
		return false
	}
	return true
}

// matchesType checks the type label condition (case-insensitive).
func matchesType(label string, rule Rule) bool {
	switch rule.TypeCondition {
	case model.TypeAny, "":
		return true
	case model.TypeEqual:
		return strings.EqualFold(label, rule.TypeValue)
	case model.TypeNotEqual:
		return !strings.EqualFold(label, rule.TypeValue)
	}

	return false
}
