// Package summary renders analysis reports as regulatory-style prose.
package summary

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"shelflife/domain/stability"
	"shelflife/internal/analysis"
)

var verdictLabels = map[stability.Verdict]string{
	stability.VerdictQualified:           "Qualified",
	stability.VerdictQualifiedWithCaveat: "Qualified with caveat",
	stability.VerdictNotQualified:        "Not qualified",
}

// Markdown describes one group: fit, estimate, verdict and any stage failures
func Markdown(report stability.AnalysisReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s / %s\n\n", report.Condition, report.Parameter)
	fmt.Fprintf(&b, "%d observations over %d timepoints (0 to %g months).\n\n",
		report.Summary.Points, report.Summary.Timepoints, report.Summary.MaxTime)

	if fit := report.Regression; fit != nil {
		fmt.Fprintf(&b, "Linear fit: value = %.4f × t + %.4f (R² = %.4f, n = %d).\n\n",
			fit.Slope, fit.Intercept, fit.RSquared, fit.Points)
	}

	if est := report.ShelfLife; est != nil {
		if est.Expired {
			fmt.Fprintf(&b, "The fitted line crosses the limit of %g at %.1f months, at or before the initial timepoint.\n\n",
				est.SpecLimit, est.Months)
		} else {
			fmt.Fprintf(&b, "Estimated shelf-life: **%.1f months** (limit %g).\n\n", est.Months, est.SpecLimit)
		}
	}

	if q := report.Qualification; q != nil {
		fmt.Fprintf(&b, "ICH assessment (%s): **%s**. %s.\n\n", q.Category.Label(), verdictLabel(q.Verdict), q.Rationale)
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(&b, "- %s not available: %s\n", stageLabel(failure.Stage), failure.Message)
	}
	if report.Failed() {
		b.WriteString("\n")
	}
	return b.String()
}

// Batch renders every report under a run heading with a verdict tally
func Batch(reports []stability.AnalysisReport) string {
	var b strings.Builder
	b.WriteString("## Stability analysis summary\n\n")
	if len(reports) == 0 {
		b.WriteString("No analysis groups.\n")
		return b.String()
	}

	counts := map[stability.Verdict]int{}
	failed := 0
	for _, report := range reports {
		if report.Qualification != nil {
			counts[report.Qualification.Verdict]++
		}
		if report.Failed() {
			failed++
		}
	}
	fmt.Fprintf(&b, "| Groups | Qualified | With caveat | Not qualified | With failures |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", len(reports),
		counts[stability.VerdictQualified], counts[stability.VerdictQualifiedWithCaveat],
		counts[stability.VerdictNotQualified], failed)

	for _, report := range reports {
		b.WriteString(Markdown(report))
	}
	return b.String()
}

// HTML converts markdown produced by this package to an HTML fragment
func HTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

func verdictLabel(v stability.Verdict) string {
	if label, ok := verdictLabels[v]; ok {
		return label
	}
	return string(v)
}

func stageLabel(stage string) string {
	switch stage {
	case analysis.StageRegression:
		return "Regression"
	case analysis.StageShelfLife:
		return "Shelf-life"
	case analysis.StageQualification:
		return "Qualification"
	}
	return stage
}
