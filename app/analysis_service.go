package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"shelflife/adapters/excel"
	"shelflife/adapters/ingestion"
	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/internal"
	"shelflife/internal/analysis"
	"shelflife/internal/errors"
	"shelflife/ports"
)

// Run sources
const (
	SourceAPI      = "api"
	SourceUpload   = "upload"
	SourceWorkbook = "workbook"
	SourceCLI      = "cli"
)

// AnalysisService runs the engine over incoming data and records each run
type AnalysisService struct {
	engine  *analysis.Engine
	repo    ports.RunRepository
	coercer *ingestion.Coercer
	logger  *internal.Logger
	now     func() time.Time
}

// NewAnalysisService creates the service; repo may be nil to skip persistence
func NewAnalysisService(engine *analysis.Engine, repo ports.RunRepository) *AnalysisService {
	return &AnalysisService{
		engine:  engine,
		repo:    repo,
		coercer: ingestion.NewCoercer(),
		logger:  internal.DefaultLogger.WithComponent("AnalysisService"),
		now:     time.Now,
	}
}

// Engine returns the underlying engine
func (s *AnalysisService) Engine() *analysis.Engine {
	return s.engine
}

// AnalyzeObservations validates already-structured observations and runs the engine.
// Any invalid observation rejects the whole request.
func (s *AnalysisService) AnalyzeObservations(ctx context.Context, source string, observations []stability.Observation, specLimit float64) (*stability.AnalysisRun, error) {
	if issues := s.coercer.ValidateAll(observations); len(issues) > 0 {
		first := issues[0]
		return nil, errors.ValidationError(fmt.Sprintf("observation %d: %s (%d invalid)", first.Row, first.Reason, len(issues)))
	}
	return s.run(ctx, source, stability.NewStore(observations...), specLimit, nil)
}

// AnalyzeUpload parses an xlsx or csv stream. Rejected rows are kept on the
// run as RowIssues; the run fails only when no row survives.
func (s *AnalysisService) AnalyzeUpload(ctx context.Context, src io.Reader, filename string, specLimit float64) (*stability.AnalysisRun, error) {
	data, err := excel.NewDataReader(filename).ReadStream(src, filename)
	if err != nil {
		return nil, err
	}
	return s.analyzeSheet(ctx, SourceUpload, data, specLimit)
}

// AnalyzeFile reads a workbook or csv from disk
func (s *AnalysisService) AnalyzeFile(ctx context.Context, source, path string, specLimit float64) (*stability.AnalysisRun, error) {
	data, err := excel.NewDataReader(path).ReadData()
	if err != nil {
		return nil, err
	}
	return s.analyzeSheet(ctx, source, data, specLimit)
}

func (s *AnalysisService) analyzeSheet(ctx context.Context, source string, data *excel.SheetData, specLimit float64) (*stability.AnalysisRun, error) {
	result, err := s.coercer.FromSheet(data)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "unrecognized sheet layout")
	}
	if len(result.Observations) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("no valid observations (%d rows rejected)", len(result.Issues)))
	}
	return s.run(ctx, source, stability.NewStore(result.Observations...), specLimit, result.Issues)
}

func (s *AnalysisService) run(ctx context.Context, source string, store stability.Store, specLimit float64, issues []stability.RowIssue) (*stability.AnalysisRun, error) {
	reports, err := s.engine.Analyze(store, specLimit)
	if err != nil {
		return nil, errors.Wrap(err, "analysis rejected")
	}

	run := &stability.AnalysisRun{
		ID:               core.NewID(),
		Source:           source,
		Fingerprint:      store.Fingerprint(specLimit),
		SpecLimit:        specLimit,
		ObservationCount: store.Len(),
		Reports:          reports,
		RowIssues:        issues,
		CreatedAt:        s.now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, run); err != nil {
			return nil, errors.Wrap(err, "failed to save analysis run")
		}
	}

	s.logger.Info("run %s: %d observations, %d groups, fingerprint %s", run.ID, run.ObservationCount, len(run.Reports), run.Fingerprint.Short())
	return run, nil
}

// GetRun loads a stored run
func (s *AnalysisService) GetRun(ctx context.Context, id string) (*stability.AnalysisRun, error) {
	runID, err := core.ParseID(id)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid run id %q", id))
	}
	if s.repo == nil {
		return nil, errors.NotFound("analysis run")
	}
	run, err := s.repo.Get(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]*stability.AnalysisRun, error) {
	if s.repo == nil {
		return nil, nil
	}
	runs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	return runs, nil
}
