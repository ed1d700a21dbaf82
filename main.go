// @title Slide Review API
// @version 1.0
// @description Backend for distributing digital pathology cases to observers and collecting their structured reviews.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"slidereview_backend/internal/app"
	"slidereview_backend/internal/config"
	"slidereview_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
