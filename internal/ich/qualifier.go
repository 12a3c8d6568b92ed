// Package ich applies ICH Q1E evaluation rules to fitted stability groups.
package ich

import (
	"fmt"
	"math"
	"strings"

	"shelflife/domain/stability"
)

// Criteria holds the qualification thresholds
type Criteria struct {
	MinTimepoints int     `json:"min_timepoints" yaml:"min_timepoints"`
	MinRSquared   float64 `json:"min_r_squared" yaml:"min_r_squared"`
}

// DefaultCriteria returns the ICH minimum of three timepoints and R² >= 0.95
func DefaultCriteria() Criteria {
	return Criteria{
		MinTimepoints: 3,
		MinRSquared:   0.95,
	}
}

const (
	CriterionTimepoints    = "timepoints"
	CriterionFitQuality    = "fit_quality"
	CriterionExtrapolation = "extrapolation_policy"
)

// Qualifier resolves a condition's category and classifies the group
type Qualifier struct {
	lookup   stability.CategoryLookup
	criteria Criteria
}

// NewQualifier creates a qualifier over the given category lookup
func NewQualifier(lookup stability.CategoryLookup, criteria Criteria) *Qualifier {
	return &Qualifier{lookup: lookup, criteria: criteria}
}

// Criteria returns the thresholds in use
func (q *Qualifier) Criteria() Criteria {
	return q.criteria
}

// Qualify looks up the condition's category and classifies (n, rSquared) against it.
// n is the number of distinct timepoints; rSquared may be NaN when no line could be fitted.
// The only error is an unknown condition.
func (q *Qualifier) Qualify(n int, rSquared float64, condition string) (stability.QualificationVerdict, error) {
	category, err := q.lookup.Category(condition)
	if err != nil {
		return stability.QualificationVerdict{}, err
	}
	return Classify(n, rSquared, category, q.criteria), nil
}

// Classify is total over its inputs. Rules apply in order and the first failure
// decides the verdict:
//  1. n >= MinTimepoints, else not qualified (insufficient timepoints)
//  2. rSquared >= MinRSquared, else not qualified (poor model fit)
//  3. long-term is qualified; accelerated is qualified with the extrapolation caveat
//
// Every evaluated rule is listed in the rationale.
func Classify(n int, rSquared float64, category stability.Category, c Criteria) stability.QualificationVerdict {
	verdict := stability.QualificationVerdict{
		Verdict:  stability.VerdictNotQualified,
		Category: category,
	}

	timepoints := stability.CriterionResult{Name: CriterionTimepoints, Passed: n >= c.MinTimepoints}
	if timepoints.Passed {
		timepoints.Detail = fmt.Sprintf("timepoints passed: %d >= %d", n, c.MinTimepoints)
	} else {
		timepoints.Detail = fmt.Sprintf("insufficient timepoints: %d < %d", n, c.MinTimepoints)
	}

	fit := stability.CriterionResult{Name: CriterionFitQuality}
	switch {
	case math.IsNaN(rSquared):
		fit.Detail = "poor model fit: r_squared undefined"
	case rSquared >= c.MinRSquared:
		fit.Passed = true
		fit.Detail = fmt.Sprintf("fit quality passed: r_squared %.4f >= %.2f", rSquared, c.MinRSquared)
	default:
		fit.Detail = fmt.Sprintf("poor model fit: r_squared %.4f < %.2f", rSquared, c.MinRSquared)
	}

	verdict.Criteria = []stability.CriterionResult{timepoints, fit}
	if !timepoints.Passed || !fit.Passed {
		verdict.Rationale = joinDetails(verdict.Criteria)
		return verdict
	}

	policy := stability.CriterionResult{Name: CriterionExtrapolation, Passed: true}
	switch category {
	case stability.CategoryLongTerm:
		verdict.Verdict = stability.VerdictQualified
		policy.Detail = "long-term condition; estimate may be used directly"
	case stability.CategoryAccelerated:
		verdict.Verdict = stability.VerdictQualifiedWithCaveat
		policy.Detail = "accelerated condition; extrapolation rules apply"
	default:
		policy.Passed = false
		policy.Detail = fmt.Sprintf("unrecognized condition category %q", string(category))
	}

	verdict.Criteria = append(verdict.Criteria, policy)
	verdict.Rationale = joinDetails(verdict.Criteria)
	return verdict
}

// joinDetails puts failed criteria first so the deciding reason leads the rationale
func joinDetails(criteria []stability.CriterionResult) string {
	parts := make([]string, 0, len(criteria))
	for _, cr := range criteria {
		if !cr.Passed {
			parts = append(parts, cr.Detail)
		}
	}
	for _, cr := range criteria {
		if cr.Passed {
			parts = append(parts, cr.Detail)
		}
	}
	return strings.Join(parts, "; ")
}
