package archive

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"simflow/internal"
	"simflow/internal/config"
	"simflow/internal/migration"
)

// Open connects to the configured archive database and migrates it
func Open(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.DriverName(), cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s archive: %w", cfg.ArchiveManager, err)
	}
	if cfg.DriverName() == "sqlite3" {
		// sqlite serialises writers
		db.SetMaxOpenConns(1)
	}
	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
