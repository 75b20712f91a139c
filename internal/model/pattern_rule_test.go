package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/freightflow/internal/common"
)

func bound(f float64) *float64 {
	return &f
}

func TestRuleSet_Validate(t *testing.T) {
	valid := func() RuleSet {
		return RuleSet{
			IDField:         "Verzending-ID",
			TypeField:       "Type",
			DefaultCategory: "Overig",
			Rules: []ClassificationRule{
				{Name: "low", Category: "A", IDMin: bound(1), IDMax: bound(10), TypeCondition: TypeEqual, TypeValue: "Laden"},
				{Name: "any", Category: "B", TypeCondition: TypeAny},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*RuleSet)
		wantErr bool
	}{
		{"valid", func(*RuleSet) {}, false},
		{"no rules", func(s *RuleSet) { s.Rules = nil }, false},
		{"missing id field", func(s *RuleSet) { s.IDField = "" }, true},
		{"missing default", func(s *RuleSet) { s.DefaultCategory = "" }, true},
		{"type rule without type field", func(s *RuleSet) { s.TypeField = "" }, true},
		{"inverted range", func(s *RuleSet) { s.Rules[0].IDMin = bound(20) }, true},
		{"missing category", func(s *RuleSet) { s.Rules[1].Category = "" }, true},
		{"comparison without value", func(s *RuleSet) { s.Rules[0].TypeValue = "" }, true},
		{"unknown condition", func(s *RuleSet) { s.Rules[0].TypeCondition = "like" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, common.ErrInvalidRule), "got %v", err)
		})
	}
}

func TestRuleSet_Categories(t *testing.T) {
	s := RuleSet{
		DefaultCategory: "Overig",
		Rules: []ClassificationRule{
			{Category: "B"}, {Category: "A"}, {Category: "B"},
		},
	}
	assert.Equal(t, []string{"B", "A", "Overig"}, s.Categories())
}
