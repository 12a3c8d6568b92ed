package ich

import (
	"math"
	"strings"
	"testing"

	"shelflife/domain/core"
	"shelflife/domain/stability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_LongTermQualified(t *testing.T) {
	v := Classify(4, 1.0, stability.CategoryLongTerm, DefaultCriteria())

	assert.Equal(t, stability.VerdictQualified, v.Verdict)
	assert.Equal(t, stability.CategoryLongTerm, v.Category)
	require.Len(t, v.Criteria, 3)
	for _, cr := range v.Criteria {
		assert.True(t, cr.Passed, cr.Name)
	}
	assert.Contains(t, v.Rationale, "timepoints passed")
	assert.Contains(t, v.Rationale, "fit quality passed")
}

func TestClassify_AcceleratedCaveat(t *testing.T) {
	v := Classify(3, 0.97, stability.CategoryAccelerated, DefaultCriteria())

	assert.Equal(t, stability.VerdictQualifiedWithCaveat, v.Verdict)
	assert.Contains(t, v.Rationale, "accelerated condition; extrapolation rules apply")
}

func TestClassify_TimepointRuleTakesPrecedence(t *testing.T) {
	// Two perfectly fitted timepoints at an accelerated condition
	v := Classify(2, 1.0, stability.CategoryAccelerated, DefaultCriteria())

	assert.Equal(t, stability.VerdictNotQualified, v.Verdict)
	assert.Contains(t, v.Rationale, "insufficient timepoints")
	assert.True(t, strings.HasPrefix(v.Rationale, "insufficient timepoints"), v.Rationale)
	assert.NotContains(t, v.Rationale, "extrapolation rules apply")
	require.Len(t, v.Criteria, 2)
	assert.True(t, v.Criteria[1].Passed, "fit quality still reported as passed")
}

func TestClassify_PoorFit(t *testing.T) {
	v := Classify(6, 0.80, stability.CategoryLongTerm, DefaultCriteria())

	assert.Equal(t, stability.VerdictNotQualified, v.Verdict)
	assert.Contains(t, v.Rationale, "poor model fit")
}

func TestClassify_BoundaryValuesPass(t *testing.T) {
	v := Classify(3, 0.95, stability.CategoryLongTerm, DefaultCriteria())
	assert.Equal(t, stability.VerdictQualified, v.Verdict)
}

func TestClassify_UndefinedRSquared(t *testing.T) {
	v := Classify(5, math.NaN(), stability.CategoryLongTerm, DefaultCriteria())

	assert.Equal(t, stability.VerdictNotQualified, v.Verdict)
	assert.Contains(t, v.Rationale, "r_squared undefined")
}

func TestClassify_IsTotalAndDeterministic(t *testing.T) {
	categories := []stability.Category{stability.CategoryLongTerm, stability.CategoryAccelerated, stability.Category("bogus")}
	valid := map[stability.Verdict]bool{
		stability.VerdictQualified:           true,
		stability.VerdictQualifiedWithCaveat: true,
		stability.VerdictNotQualified:        true,
	}

	for _, category := range categories {
		for n := -1; n <= 8; n++ {
			for _, r2 := range []float64{math.NaN(), -0.1, 0, 0.5, 0.9499, 0.95, 0.99, 1, 1.2} {
				first := Classify(n, r2, category, DefaultCriteria())
				second := Classify(n, r2, category, DefaultCriteria())

				assert.True(t, valid[first.Verdict])
				assert.Equal(t, first, second)
				assert.NotEmpty(t, first.Rationale)
			}
		}
	}
}

func TestClassify_CustomCriteria(t *testing.T) {
	strict := Criteria{MinTimepoints: 5, MinRSquared: 0.99}

	assert.Equal(t, stability.VerdictNotQualified, Classify(4, 1.0, stability.CategoryLongTerm, strict).Verdict)
	assert.Equal(t, stability.VerdictNotQualified, Classify(5, 0.98, stability.CategoryLongTerm, strict).Verdict)
	assert.Equal(t, stability.VerdictQualified, Classify(5, 0.995, stability.CategoryLongTerm, strict).Verdict)
}

func TestQualifier_UnknownCondition(t *testing.T) {
	q := NewQualifier(stability.DefaultConditions(), DefaultCriteria())

	_, err := q.Qualify(4, 1.0, "50C_80RH")
	require.Error(t, err)
	assert.True(t, core.IsUnknownConditionError(err))

	v, err := q.Qualify(4, 1.0, "40C_75RH")
	require.NoError(t, err)
	assert.Equal(t, stability.VerdictQualifiedWithCaveat, v.Verdict)
}

func TestQualifier_InjectedLookup(t *testing.T) {
	table := stability.DefaultConditions().Merge(stability.ConditionTable{"5C_AMBIENT": stability.CategoryLongTerm})
	q := NewQualifier(table, DefaultCriteria())

	v, err := q.Qualify(3, 0.99, "5C_AMBIENT")
	require.NoError(t, err)
	assert.Equal(t, stability.VerdictQualified, v.Verdict)
	assert.Equal(t, DefaultCriteria(), q.Criteria())
}
