package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/internal/errors"
	"shelflife/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

type runRow struct {
	ID               string    `db:"id"`
	Source           string    `db:"source"`
	Fingerprint      string    `db:"fingerprint"`
	SpecLimit        float64   `db:"spec_limit"`
	ObservationCount int       `db:"observation_count"`
	RowIssues        []byte    `db:"row_issues"`
	CreatedAt        time.Time `db:"created_at"`
}

func (r runRow) toRun() (*stability.AnalysisRun, error) {
	run := &stability.AnalysisRun{
		ID:               core.ID(r.ID),
		Source:           r.Source,
		Fingerprint:      core.Hash(r.Fingerprint),
		SpecLimit:        r.SpecLimit,
		ObservationCount: r.ObservationCount,
		CreatedAt:        r.CreatedAt,
	}
	if len(r.RowIssues) > 0 {
		if err := json.Unmarshal(r.RowIssues, &run.RowIssues); err != nil {
			return nil, fmt.Errorf("failed to decode row issues: %w", err)
		}
	}
	return run, nil
}

// Save inserts the run and its reports in one transaction
func (r *RunRepositoryImpl) Save(ctx context.Context, run *stability.AnalysisRun) error {
	issues, err := json.Marshal(run.RowIssues)
	if err != nil {
		return fmt.Errorf("failed to encode row issues: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, source, fingerprint, spec_limit, observation_count, row_issues, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID.String(), run.Source, run.Fingerprint.String(), run.SpecLimit, run.ObservationCount, issues, run.CreatedAt)
	if err != nil {
		return errors.DatabaseError("failed to insert analysis run", err)
	}

	for i, report := range run.Reports {
		payload, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report %s: %w", report.Key(), err)
		}
		var verdict sql.NullString
		if report.Qualification != nil {
			verdict = sql.NullString{String: string(report.Qualification.Verdict), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO analysis_reports (run_id, position, condition, parameter, verdict, report)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, run.ID.String(), i, report.Condition, report.Parameter, verdict, payload)
		if err != nil {
			return errors.DatabaseError("failed to insert analysis report", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit analysis run", err)
	}
	return nil
}

// Get retrieves a run with its reports in stored order
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.ID) (*stability.AnalysisRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, source, fingerprint, spec_limit, observation_count, row_issues, created_at
		FROM analysis_runs
		WHERE id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis run", err)
	}

	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	var payloads [][]byte
	err = r.db.SelectContext(ctx, &payloads, `
		SELECT report FROM analysis_reports
		WHERE run_id = $1
		ORDER BY position
	`, id.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis reports", err)
	}

	run.Reports = make([]stability.AnalysisReport, 0, len(payloads))
	for _, payload := range payloads {
		var report stability.AnalysisReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		run.Reports = append(run.Reports, report)
	}
	return run, nil
}

// List returns runs newest first, optionally limited
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*stability.AnalysisRun, error) {
	query := `
		SELECT id, source, fingerprint, spec_limit, observation_count, row_issues, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list analysis runs", err)
	}

	runs := make([]*stability.AnalysisRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
