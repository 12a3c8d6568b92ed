package api

import (
	"time"

	"shelflife/domain/stability"
	"shelflife/internal/ich"
)

// AnalyzeRequest is the JSON body of POST /api/v1/analyses
type AnalyzeRequest struct {
	SpecLimit    *float64                `json:"spec_limit" binding:"required"`
	Observations []stability.Observation `json:"observations" binding:"required,min=1"`
}

// QualifyRequest is the JSON body of POST /api/v1/qualify
type QualifyRequest struct {
	Timepoints int      `json:"timepoints" binding:"gte=0"`
	RSquared   *float64 `json:"r_squared" binding:"required"`
	Condition  string   `json:"condition" binding:"required"`
}

// RunSummary is a run without its reports, as listed
type RunSummary struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Fingerprint      string    `json:"fingerprint"`
	SpecLimit        float64   `json:"spec_limit"`
	ObservationCount int       `json:"observation_count"`
	RowIssues        int       `json:"row_issues"`
	CreatedAt        time.Time `json:"created_at"`
}

// ConditionsResponse lists the configured condition table
type ConditionsResponse struct {
	Conditions map[string]stability.Category `json:"conditions"`
	Criteria   ich.Criteria                  `json:"criteria"`
}

func summarize(run *stability.AnalysisRun) RunSummary {
	return RunSummary{
		ID:               run.ID.String(),
		Source:           run.Source,
		Fingerprint:      run.Fingerprint.String(),
		SpecLimit:        run.SpecLimit,
		ObservationCount: run.ObservationCount,
		RowIssues:        len(run.RowIssues),
		CreatedAt:        run.CreatedAt,
	}
}
