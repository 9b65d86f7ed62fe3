package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/thirtyvoice/backend/internal/config"
	"github.com/thirtyvoice/backend/internal/database"
	"github.com/thirtyvoice/backend/internal/logger"
	"github.com/thirtyvoice/backend/internal/seed"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	if err := seed.NewSeeder(database.DB).Run(context.Background()); err != nil {
		logger.Log.Fatal("Seeding failed", zap.Error(err))
	}
}
