package ports

import (
	"context"

	"shelflife/domain/core"
	"shelflife/domain/stability"
)

// RunRepository persists analysis runs
type RunRepository interface {
	// Save stores a run with all of its reports
	Save(ctx context.Context, run *stability.AnalysisRun) error

	// Get retrieves a run and its reports; core.ErrRunNotFound when absent
	Get(ctx context.Context, id core.ID) (*stability.AnalysisRun, error)

	// List returns runs newest first without their reports, optionally limited
	List(ctx context.Context, limit int) ([]*stability.AnalysisRun, error)
}
