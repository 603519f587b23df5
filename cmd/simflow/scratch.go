package main

import (
	"github.com/spf13/cobra"

	"simflow/internal/scratch"
)

func newScratchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Manage scratch job directories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clean [root]",
		Short: "Delete every job directory under the scratch root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			root := opts.cfg.Scratch.Root
			if len(args) == 1 {
				root = args[0]
			}
			n, err := scratch.Clean(root)
			if err != nil {
				return err
			}
			opts.console.success("Removed %d job directories from %s", n, root)
			return nil
		},
	})
	return cmd
}
