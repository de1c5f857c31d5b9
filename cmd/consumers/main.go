package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourdesk/cmd/consumers/jobs"
	"tourdesk/internal/config"
	"tourdesk/internal/consumers"
	"tourdesk/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.WithFields("service", "consumers", "client_id", "tourdesk-consumers")

	log.Info("Starting consumers service...")

	// Отдельный client id для consumers
	cfg.NATS.ClientID = "tourdesk-consumers"

	consumerService, err := consumers.NewConsumerService(cfg, consumers.LogSink{})
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reconcile := jobs.NewSeatReconciliationJob(consumerService.Repos.Slots, consumerService.Ledger, cfg.ReconcileInterval, cfg.ReconcileFix)
	reconcile.Start(ctx)

	log.Info("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down consumers service...")
	reconcile.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
	}

	log.Info("Consumers service stopped")
}
