package stability

import (
	"time"

	"shelflife/domain/core"
)

// RowIssue records an input row rejected at the ingestion boundary
type RowIssue struct {
	Row    int    `json:"row"` // 1-based, header row excluded
	Reason string `json:"reason"`
}

// AnalysisRun is one persisted execution of the engine
type AnalysisRun struct {
	ID               core.ID          `json:"id"`
	Source           string           `json:"source"` // "api", "upload", "cli", "workbook"
	Fingerprint      core.Hash        `json:"fingerprint"`
	SpecLimit        float64          `json:"spec_limit"`
	ObservationCount int              `json:"observation_count"`
	Reports          []AnalysisReport `json:"reports"`
	RowIssues        []RowIssue       `json:"row_issues,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// VerdictCounts tallies qualification outcomes across the run. Groups without
// a verdict are counted under the empty key.
func (r AnalysisRun) VerdictCounts() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, report := range r.Reports {
		if report.Qualification == nil {
			counts[""]++
			continue
		}
		counts[report.Qualification.Verdict]++
	}
	return counts
}

// Report returns the report for key, if present
func (r AnalysisRun) Report(key GroupKey) (AnalysisReport, bool) {
	for _, report := range r.Reports {
		if report.Key() == key {
			return report, true
		}
	}
	return AnalysisReport{}, false
}
