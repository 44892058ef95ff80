package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/config"
	"github.com/Jose00521/raffle-stats-service/internal/handler"
	"github.com/Jose00521/raffle-stats-service/internal/logger"
	"github.com/Jose00521/raffle-stats-service/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stats API",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.API.Port))

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to create PostgreSQL client", zap.Error(err))
	}
	defer pgClient.Close()

	queries := postgres.NewQueries(pgClient)
	h := handler.NewHandler(queries, log)

	addr := ":" + cfg.API.Port
	log.Info("Stats API listening", zap.String("address", addr))
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("API server error", zap.Error(err))
	}
}
