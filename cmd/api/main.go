package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"lassosig/adapters/api"
	"lassosig/adapters/postgres"
	"lassosig/adapters/rng"
	"lassosig/app"
	"lassosig/internal"
	"lassosig/internal/config"
	"lassosig/internal/testkit"
	"lassosig/ports"
)

func main() {
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.GinMode)

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Error("store setup failed: %v", err)
		os.Exit(1)
	}

	pipeline, err := app.NewPipelineService(cfg.Pipeline, rng.NewStreamAdapter(), logger)
	if err != nil {
		logger.Error("pipeline setup failed: %v", err)
		os.Exit(1)
	}

	server := api.NewServer(pipeline, store, logger)
	if err := server.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}

// buildStore prefers PostgreSQL when DATABASE_URL is set and falls back to
// the in-memory store otherwise.
func buildStore(cfg *config.Config, logger *internal.Logger) (ports.ResultStore, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set; runs are kept in memory only")
		return testkit.NewMemoryStore(), nil
	}

	db, err := postgres.Connect(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	logger.Info("result store: postgres")
	return repo, nil
}
