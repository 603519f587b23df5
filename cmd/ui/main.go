package main

import (
	"context"
	"log"

	"simflow/internal/config"
	"simflow/internal/container"
	"simflow/ui"
)

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	c, err := container.New(cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.InitWithDatabase(context.Background()); err != nil {
		log.Fatal("Failed to open archive: ", err)
	}
	defer c.Shutdown()

	app, err := ui.NewApp(c.Archive, ui.Config{Port: cfg.Server.DashboardPort}, c.Logger)
	if err != nil {
		log.Fatal("Failed to create dashboard: ", err)
	}
	log.Fatal(app.Start())
}
