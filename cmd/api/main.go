package main

import (
	"fmt"
	"os"

	"dompet/internal/config"
	"dompet/internal/database"
	"dompet/internal/logger"
	"dompet/internal/server"
)

// @title           Dompet API
// @version         1.0
// @description     Dompet is a household ledger: accounts, categories, budgets and goal-based savings projects kept consistent by a single ledger engine.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	router := server.NewRouter(dbManager.DB(), appConfig)

	if appConfig.MaintenanceAPIKey == "" {
		log.Warn("MAINTENANCE_API_KEY is empty; maintenance endpoints are disabled")
	}
	log.Infof("Starting Dompet server on port %s (driver %s)", appConfig.Port, appConfig.DBDriver)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
