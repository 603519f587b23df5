package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"simflow/internal/api"
	"simflow/internal/config"
	"simflow/internal/container"
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

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(api.NewHandler(c.Archive, c.Logger))

	c.Logger.Info("Starting simflow API on :%s", cfg.Server.APIPort)
	if err := router.Run(":" + cfg.Server.APIPort); err != nil {
		log.Fatal("Server failed: ", err)
	}
}
