// Package classification holds the operational service-class rule set.
package classification

import "github.com/Veraticus/freightflow/internal/model"

// Service classes assigned by the default rule set.
const (
	CategoryICLAfhaal   = "ICL AFH"
	CategoryICLLevering = "ICL LEV"
	CategoryTUFExport   = "TUF EXPORT"
	CategoryTUFImport   = "TUF IMPORT"
	CategoryOther       = "Overig"
)

// Default field names and the loading label the rules compare against.
const (
	DefaultIDField   = "Verzending-ID"
	DefaultTypeField = "Type"
	TypeLoading      = "Laden"
)

// Identifier ranges of the service classes. ICL numbers sit inside the TUF
// range, so the ICL rules must come first.
const (
	iclMin = 2510500000
	iclMax = 2510999999
	tufMin = 2400000000
	tufMax = 2599999999
)

// DefaultRuleSet returns the default service-class rules in priority order.
func DefaultRuleSet() model.RuleSet {
	return model.RuleSet{
		IDField:         DefaultIDField,
		TypeField:       DefaultTypeField,
		DefaultCategory: CategoryOther,
		Rules: []model.ClassificationRule{
			{
				Name:          "ICL pickup",
				Category:      CategoryICLAfhaal,
				IDMin:         bound(iclMin),
				IDMax:         bound(iclMax),
				TypeCondition: model.TypeEqual,
				TypeValue:     TypeLoading,
			},
			{
				Name:          "ICL delivery",
				Category:      CategoryICLLevering,
				IDMin:         bound(iclMin),
				IDMax:         bound(iclMax),
				TypeCondition: model.TypeAny,
			},
			{
				Name:          "TUF export",
				Category:      CategoryTUFExport,
				IDMin:         bound(tufMin),
				IDMax:         bound(tufMax),
				TypeCondition: model.TypeEqual,
				TypeValue:     TypeLoading,
			},
			{
				Name:          "TUF import",
				Category:      CategoryTUFImport,
				IDMin:         bound(tufMin),
				IDMax:         bound(tufMax),
				TypeCondition: model.TypeNotEqual,
				TypeValue:     TypeLoading,
			},
		},
	}
}

func bound(f float64) *float64 {
	return &f
}
