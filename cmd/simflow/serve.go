package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"simflow/internal/api"
	"simflow/ui"
)

func newDashboardCmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the archive dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.container(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			if port == "" {
				port = opts.cfg.Server.DashboardPort
			}
			app, err := ui.NewApp(c.Archive, ui.Config{Port: port}, opts.logger)
			if err != nil {
				return err
			}
			return app.Start()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listening port (default SIMFLOW_SERVER__DASHBOARD_PORT)")
	return cmd
}

func newAPICmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.container(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			if port == "" {
				port = opts.cfg.Server.APIPort
			}
			gin.SetMode(opts.cfg.Server.GinMode)
			router := api.NewRouter(api.NewHandler(c.Archive, opts.logger))
			opts.logger.Info("API listening on :%s", port)
			return router.Run(":" + port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listening port (default SIMFLOW_SERVER__API_PORT)")
	return cmd
}
