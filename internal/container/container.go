package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"simflow/adapters/archive"
	"simflow/app"
	"simflow/internal"
	"simflow/internal/config"
	"simflow/internal/scratch"
	"simflow/ports"
)

// Container holds the application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Archive of model results
	Archive ports.ArchiveRepository

	// Model execution and analysis tools
	Runner *app.ModelRunner
	Tools  *app.ToolsFactory
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// InitWithDatabase opens and migrates the archive, then builds the
// components that record into it
func (c *Container) InitWithDatabase(ctx context.Context) error {
	db, err := archive.Open(ctx, c.Config, c.Logger)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	c.Archive = archive.NewRepository(db)
	return c.initTools(c.Archive)
}

// InitWithoutDatabase builds the tools with archiving disabled
func (c *Container) InitWithoutDatabase() error {
	return c.initTools(nil)
}

func (c *Container) initTools(repo ports.ArchiveRepository) error {
	persistency, err := scratch.ParsePersistency(c.Config.Scratch.Persistency)
	if err != nil {
		return err
	}
	settings := scratch.Settings{Root: c.Config.Scratch.Root, Persistency: persistency}
	c.Runner = app.NewModelRunner(repo, settings, c.Logger)
	c.Tools = app.NewToolsFactory(c.Runner, c.Config.WorkingDirectory, nil, c.Logger)
	c.Logger.Debug("Container initialized (archive: %t)", repo != nil)
	return nil
}

// Shutdown releases the database connection
func (c *Container) Shutdown() error {
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.DB = nil
	return err
}
