package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"tourdesk/cmd/consumers/jobs"
	"tourdesk/internal/config"
	"tourdesk/internal/database"
	"tourdesk/internal/logger"
	"tourdesk/internal/messaging"
	"tourdesk/internal/repository"
	"tourdesk/internal/service"
)

// sync-seats runs a single seat reconciliation pass over every slot.
// Without -fix it only reports drift.
func main() {
	fix := flag.Bool("fix", false, "Rewrite reserved_seats from the reservations")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting seat reconciliation", "fix", *fix)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	publisher, err := messaging.Connect(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer publisher.Close()

	repos := repository.NewRepositories(db)
	ledger := service.NewLedgerService(repos.Ledger, publisher)

	start := time.Now()
	job := jobs.NewSeatReconciliationJob(repos.Slots, ledger, 0, *fix)
	drifted := job.RunOnce(context.Background())

	slog.Info("Seat reconciliation completed", "drifted_slots", drifted, "duration", time.Since(start).String())
}
