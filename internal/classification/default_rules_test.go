package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet(t *testing.T) {
	set := DefaultRuleSet()
	require.NoError(t, set.Validate())

	assert.Equal(t, []string{
		CategoryICLAfhaal,
		CategoryICLLevering,
		CategoryTUFExport,
		CategoryTUFImport,
		CategoryOther,
	}, set.Categories())
}

func TestDefaultRuleSet_ICLBeforeTUF(t *testing.T) {
	set := DefaultRuleSet()
	for i, rule := range set.Rules[:2] {
		for _, later := range set.Rules[2:] {
			assert.GreaterOrEqual(t, *rule.IDMin, *later.IDMin, "rule %d lies inside the TUF range", i)
			assert.LessOrEqual(t, *rule.IDMax, *later.IDMax, "rule %d lies inside the TUF range", i)
		}
	}
}

func TestDefaultRuleSet_ReturnsCopy(t *testing.T) {
	a := DefaultRuleSet()
	*a.Rules[0].IDMin = 0
	assert.Equal(t, float64(iclMin), *DefaultRuleSet().Rules[0].IDMin)
}
