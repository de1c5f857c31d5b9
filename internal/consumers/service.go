package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"tourdesk/internal/config"
	"tourdesk/internal/database"
	"tourdesk/internal/messaging"
	"tourdesk/internal/repository"
	"tourdesk/internal/service"

	"github.com/nats-io/stan.go"
)

const queueGroup = "notifications"

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription

	Repos  *repository.Repositories
	Ledger *service.LedgerService
}

// NewConsumerService connects the database and, when enabled, NATS Streaming.
// Without NATS only the background jobs run.
func NewConsumerService(cfg *config.Config, sink Sink) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	cs := &ConsumerService{
		db:       db,
		handlers: NewHandlers(sink),
		Repos:    repository.NewRepositories(db),
	}

	var publisher service.EventPublisher = messaging.NopPublisher{}
	if cfg.NATS.Enabled {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		cs.nats = natsClient
		publisher = natsClient
	}

	cs.Ledger = service.NewLedgerService(cs.Repos.Ledger, publisher)
	return cs, nil
}

func (cs *ConsumerService) Start() error {
	if cs.nats == nil {
		slog.Warn("NATS disabled, notification consumers not started")
		return nil
	}

	slog.Info("Starting NATS consumers...")
	for _, subject := range Subjects {
		sub, err := cs.nats.SubscribeQueue(subject, queueGroup, cs.handlers.MsgHandler(subject))
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	slog.Info("All consumers started successfully", "subjects", len(Subjects))
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.InfoContext(ctx, "Shutting down consumer service...")

	// Close keeps durable subscriptions for the next start
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
