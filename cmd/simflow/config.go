package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as environment variables",
		RunE: func(_ *cobra.Command, _ []string) error {
			dump := opts.cfg.Dump()
			for _, key := range sortedKeys(dump) {
				opts.console.line("%s=%s", key, dump[key])
			}
			return nil
		},
	})
	return cmd
}
