// Package memory holds in-process repository implementations used when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/ports"
)

// RunRepository keeps runs in a map guarded by a RWMutex
type RunRepository struct {
	mu   sync.RWMutex
	runs map[core.ID]stability.AnalysisRun
}

// NewRunRepository creates an empty in-memory run repository
func NewRunRepository() ports.RunRepository {
	return &RunRepository{runs: make(map[core.ID]stability.AnalysisRun)}
}

// Save stores a copy of run
func (r *RunRepository) Save(ctx context.Context, run *stability.AnalysisRun) error {
	if run == nil || run.ID.IsEmpty() {
		return fmt.Errorf("run must have an id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = cloneRun(*run, true)
	return nil
}

// Get returns a copy of the stored run
func (r *RunRepository) Get(ctx context.Context, id core.ID) (*stability.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	clone := cloneRun(run, true)
	return &clone, nil
}

// List returns runs newest first, without reports
func (r *RunRepository) List(ctx context.Context, limit int) ([]*stability.AnalysisRun, error) {
	r.mu.RLock()
	runs := make([]*stability.AnalysisRun, 0, len(r.runs))
	for _, run := range r.runs {
		clone := cloneRun(run, false)
		runs = append(runs, &clone)
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func cloneRun(run stability.AnalysisRun, withReports bool) stability.AnalysisRun {
	clone := run
	clone.Reports = nil
	if withReports && run.Reports != nil {
		clone.Reports = append([]stability.AnalysisReport(nil), run.Reports...)
	}
	if run.RowIssues != nil {
		clone.RowIssues = append([]stability.RowIssue(nil), run.RowIssues...)
	}
	return clone
}
