package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"shelflife/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrapf(err, "failed to %s", step.Name)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps returns the schema statements in execution order
func Steps() []Step {
	return []Step{
		{Name: "create analysis_runs table", SQL: `
			CREATE TABLE IF NOT EXISTS analysis_runs (
				id UUID PRIMARY KEY,
				source VARCHAR(50) NOT NULL,
				fingerprint CHAR(64) NOT NULL,
				spec_limit DOUBLE PRECISION NOT NULL,
				observation_count INTEGER NOT NULL DEFAULT 0,
				row_issues JSONB,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{Name: "create analysis_reports table", SQL: `
			CREATE TABLE IF NOT EXISTS analysis_reports (
				run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				condition VARCHAR(100) NOT NULL,
				parameter VARCHAR(100) NOT NULL,
				verdict VARCHAR(50),
				report JSONB NOT NULL,
				PRIMARY KEY (run_id, position)
			)
		`},
		{Name: "create indexes", SQL: `
			CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_analysis_runs_fingerprint ON analysis_runs(fingerprint);
			CREATE INDEX IF NOT EXISTS idx_analysis_reports_group ON analysis_reports(condition, parameter)
		`},
	}
}
