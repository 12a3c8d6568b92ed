package analysis

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/internal"
	"shelflife/internal/ich"
)

// Report stages
const (
	StageRegression    = "regression"
	StageShelfLife     = "shelf_life"
	StageQualification = "qualification"
)

// Engine assembles one AnalysisReport per (condition, parameter) group.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	qualifier *ich.Qualifier
	criteria  ich.Criteria
	workers   int64
	logger    *internal.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers bounds how many groups are analyzed at once. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		e.workers = int64(n)
	}
}

// WithCriteria overrides the qualification thresholds
func WithCriteria(c ich.Criteria) Option {
	return func(e *Engine) {
		e.criteria = c
	}
}

// WithLogger sets the engine's logger
func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) {
		e.logger = l.WithComponent("Engine")
	}
}

// NewEngine creates an engine that resolves condition categories through lookup
func NewEngine(lookup stability.CategoryLookup, opts ...Option) *Engine {
	e := &Engine{
		criteria: ich.DefaultCriteria(),
		workers:  1,
		logger:   internal.DefaultLogger.WithComponent("Engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.qualifier = ich.NewQualifier(lookup, e.criteria)
	return e
}

// Criteria returns the qualification thresholds in use
func (e *Engine) Criteria() ich.Criteria {
	return e.qualifier.Criteria()
}

// Analyze partitions the store and reports on every group, sorted by (condition, parameter).
// A failing group never prevents the others from being reported; the only error is an
// invalid specLimit.
func (e *Engine) Analyze(store stability.Store, specLimit float64) ([]stability.AnalysisReport, error) {
	if err := stability.ValidateSpecLimit(specLimit); err != nil {
		return nil, err
	}

	start := time.Now()
	groups := Partition(store)
	reports := make([]stability.AnalysisReport, len(groups))

	if e.workers <= 1 || len(groups) <= 1 {
		for i, group := range groups {
			reports[i] = e.AnalyzeGroup(group, specLimit)
		}
	} else {
		// Each worker writes only its own slot, so no further coordination is needed
		sem := semaphore.NewWeighted(e.workers)
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := range groups {
			_ = sem.Acquire(ctx, 1) // Background context never cancels
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer sem.Release(1)
				reports[idx] = e.AnalyzeGroup(groups[idx], specLimit)
			}(i)
		}
		wg.Wait()
	}

	e.logger.Debug("analyzed %d observations in %d groups in %.2fms (workers=%d)",
		store.Len(), len(groups), float64(time.Since(start).Nanoseconds())/1e6, e.workers)
	return reports, nil
}

// AnalyzeGroup fits, solves and qualifies a single group
func (e *Engine) AnalyzeGroup(group stability.AnalysisGroup, specLimit float64) stability.AnalysisReport {
	report := stability.AnalysisReport{
		Condition: group.Key.Condition,
		Parameter: group.Key.Parameter,
		Summary:   Describe(group),
	}

	rSquared := math.NaN()
	fit, err := FitGroup(group)
	if err != nil {
		report.Failures = append(report.Failures, failureFrom(StageRegression, err))
	} else {
		report.Regression = &fit
		rSquared = fit.RSquared

		estimate, err := SolveShelfLife(fit, specLimit)
		if err != nil {
			report.Failures = append(report.Failures, failureFrom(StageShelfLife, err))
		} else {
			report.ShelfLife = &estimate
		}
	}

	verdict, err := e.qualifier.Qualify(report.Summary.Timepoints, rSquared, group.Key.Condition)
	if err != nil {
		report.Failures = append(report.Failures, failureFrom(StageQualification, err))
	} else {
		report.Qualification = &verdict
	}

	if report.Failed() {
		e.logger.Trace("group %s reported with %d failure(s)", group.Key, len(report.Failures))
	}
	return report
}

func failureFrom(stage string, err error) stability.Failure {
	kind := stability.FailureInternal
	switch {
	case core.IsInsufficientDataError(err):
		kind = stability.FailureInsufficientData
	case core.IsUndefinedShelfLifeError(err):
		kind = stability.FailureUndefinedShelfLife
	case core.IsUnknownConditionError(err):
		kind = stability.FailureUnknownCondition
	}
	return stability.Failure{Stage: stage, Kind: kind, Message: err.Error()}
}

// Analyze runs the full pipeline over observations with default criteria
func Analyze(observations []stability.Observation, specLimit float64, lookup stability.CategoryLookup) ([]stability.AnalysisReport, error) {
	return NewEngine(lookup).Analyze(stability.NewStore(observations...), specLimit)
}
