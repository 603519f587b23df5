package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"simflow/internal"
	"simflow/internal/config"
	"simflow/internal/container"
	"simflow/internal/scratch"
)

// rootOptions is shared by every subcommand
type rootOptions struct {
	envFile  string
	logLevel string

	cfg     *config.Config
	logger  *internal.Logger
	console *console
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		newConsole(os.Stderr).failure("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "simflow",
		Short:         "Run simulation models, archive their results and verify their convergence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env", "", "dotenv file read before the environment (default ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override SIMFLOW_LOG_LEVEL")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newVerifyCmd(opts),
		newMeasureCmd(opts),
		newScratchCmd(opts),
		newDashboardCmd(opts),
		newAPICmd(opts),
		newMigrateCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	var err error
	if o.envFile != "" {
		o.cfg, err = config.LoadFrom(o.envFile)
	} else {
		o.cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	o.logger = internal.NewLogger(internal.ParseLogLevel(o.cfg.LogLevel))
	internal.DefaultLogger = o.logger
	o.console = newConsole(cmd.OutOrStdout())
	return nil
}

// container wires the application, with or without the archive. The caller
// shuts it down.
func (o *rootOptions) container(ctx context.Context, archived bool) (*container.Container, error) {
	c, err := container.New(o.cfg, o.logger)
	if err != nil {
		return nil, err
	}
	if archived {
		err = c.InitWithDatabase(ctx)
	} else {
		err = c.InitWithoutDatabase()
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// scratchSettings returns the configured scratch defaults
func (o *rootOptions) scratchSettings() (scratch.Settings, error) {
	persistency, err := scratch.ParsePersistency(o.cfg.Scratch.Persistency)
	if err != nil {
		return scratch.Settings{}, err
	}
	return scratch.Settings{Root: o.cfg.Scratch.Root, Persistency: persistency}, nil
}
