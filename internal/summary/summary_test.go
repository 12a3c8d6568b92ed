package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"shelflife/domain/stability"
)

func qualifiedReport() stability.AnalysisReport {
	return stability.AnalysisReport{
		Condition:  "25C_60RH",
		Parameter:  "assay",
		Summary:    stability.GroupSummary{Points: 5, Timepoints: 5, MaxTime: 12},
		Regression: &stability.RegressionResult{Slope: -0.3, Intercept: 99.5, RSquared: 0.9925, Points: 5},
		ShelfLife:  &stability.ShelfLifeEstimate{Months: 15, SpecLimit: 95},
		Qualification: &stability.QualificationVerdict{
			Verdict:   stability.VerdictQualified,
			Category:  stability.CategoryLongTerm,
			Rationale: "timepoints passed: 5 >= 3; fit quality passed: r_squared 0.9925 >= 0.95",
		},
	}
}

func TestMarkdown_Qualified(t *testing.T) {
	md := Markdown(qualifiedReport())

	assert.Contains(t, md, "### 25C_60RH / assay")
	assert.Contains(t, md, "value = -0.3000 × t + 99.5000 (R² = 0.9925, n = 5)")
	assert.Contains(t, md, "**15.0 months** (limit 95)")
	assert.Contains(t, md, "ICH assessment (long-term): **Qualified**.")
	assert.NotContains(t, md, "not available")
}

func TestMarkdown_FailuresAndExpired(t *testing.T) {
	report := stability.AnalysisReport{
		Condition: "99C",
		Parameter: "assay",
		ShelfLife: &stability.ShelfLifeEstimate{Months: -2, SpecLimit: 95, Expired: true},
		Failures: []stability.Failure{
			{Stage: "qualification", Kind: stability.FailureUnknownCondition, Message: "unknown condition: 99C"},
		},
	}
	md := Markdown(report)

	assert.Contains(t, md, "at or before the initial timepoint")
	assert.Contains(t, md, "- Qualification not available: unknown condition: 99C")
	assert.NotContains(t, md, "ICH assessment")
}

func TestBatch(t *testing.T) {
	failed := stability.AnalysisReport{
		Condition: "40C_75RH",
		Parameter: "assay",
		Failures:  []stability.Failure{{Stage: "regression", Message: "insufficient data"}},
		Qualification: &stability.QualificationVerdict{
			Verdict:  stability.VerdictNotQualified,
			Category: stability.CategoryAccelerated,
		},
	}
	md := Batch([]stability.AnalysisReport{qualifiedReport(), failed})

	assert.True(t, strings.HasPrefix(md, "## Stability analysis summary"))
	assert.Contains(t, md, "| 2 | 1 | 0 | 1 | 1 |")
	assert.Less(t, strings.Index(md, "25C_60RH"), strings.Index(md, "40C_75RH"))

	assert.Contains(t, Batch(nil), "No analysis groups.")
}

func TestHTML(t *testing.T) {
	out := HTML(Batch([]stability.AnalysisReport{qualifiedReport()}))

	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>15.0 months</strong>")
}
