package main

import (
	"context"
	"log/slog"
	"time"

	"tourdesk/internal/config"
	"tourdesk/internal/database"
	"tourdesk/internal/logger"
	"tourdesk/internal/repository"
	"tourdesk/internal/search"
	"tourdesk/internal/service"
)

// reindex rebuilds the Elasticsearch activity index from Postgres
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	repos := repository.NewRepositories(db)
	activities := service.NewActivityService(repos.Activities, es, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	indexed, err := activities.Reindex(ctx)
	if err != nil {
		logger.Fatal("Reindex failed", "error", err, "indexed", indexed)
	}

	slog.Info("Reindex completed", "index", cfg.Elasticsearch.Index, "indexed", indexed, "duration", time.Since(start).String())
}
