package main

import (
	"github.com/spf13/cobra"

	"simflow/internal/migration"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the archive schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening the archive runs the migrations
			c, err := opts.container(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Shutdown()
			opts.console.success("Archive %s (%s) at schema version %s", opts.cfg.Database.URL, opts.cfg.ArchiveManager, migration.NewRunner(opts.logger).Version())
			return nil
		},
	}
}
