package migration

import (
	"context"

	"simflow/internal"
	"simflow/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the archive schema. Every statement is idempotent
// and valid for both sqlite and postgres.
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger.With("migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createResultsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create results table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	if err := r.recordVersion(ctx, db); err != nil {
		return errors.DatabaseError("failed to record schema version", err)
	}

	r.logger.Info("Archive schema at version %s", r.version)
	return nil
}

func (r *MigrationRunner) createResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id VARCHAR(36) PRIMARY KEY,
			experiment VARCHAR(255) NOT NULL,
			model VARCHAR(255) NOT NULL,
			load_case VARCHAR(255) NOT NULL,
			date TIMESTAMP NOT NULL,
			error_code INTEGER NOT NULL DEFAULT 0,
			cpu_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			job_directory TEXT NOT NULL DEFAULT '',
			fingerprint VARCHAR(64) NOT NULL DEFAULT '',
			inputs TEXT NOT NULL DEFAULT '{}',
			scalars TEXT NOT NULL DEFAULT '{}',
			curves TEXT NOT NULL DEFAULT '{}'
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_results_experiment ON results(experiment)",
		"CREATE INDEX IF NOT EXISTS idx_results_model_load_case ON results(model, load_case)",
		"CREATE INDEX IF NOT EXISTS idx_results_fingerprint ON results(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_results_date ON results(date DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("failed to create index: %v", err)
		}
	}

	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version VARCHAR(20) PRIMARY KEY
		)
	`); err != nil {
		return err
	}
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind("SELECT COUNT(*) FROM schema_version WHERE version = ?"), r.version); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, db.Rebind("INSERT INTO schema_version (version) VALUES (?)"), r.version)
	return err
}
