package main

import (
	"context"
	"flag"
	"log"

	"simflow/internal"
	"simflow/internal/config"
	"simflow/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	envFile := flag.String("env", "", "dotenv file read before the environment")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *envFile != "" {
		cfg, err = config.LoadFrom(*envFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	log.Printf("Migrating %s archive at %s", cfg.ArchiveManager, cfg.Database.URL)
	db, err := sqlx.Connect(cfg.DriverName(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner(logger)
	if err := runner.Run(context.Background(), db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Archive at schema version %s", runner.Version())
}
