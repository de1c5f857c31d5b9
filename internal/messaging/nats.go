package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"tourdesk/internal/logger"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

type Config struct {
	Enabled   bool
	URL       string
	ClusterID string
	ClientID  string
}

// Publisher is what the services need from the event bus
type Publisher interface {
	Publish(subject string, data interface{}) error
	Close() error
}

type NATSClient struct {
	conn stan.Conn
}

// Connect returns a NATS Streaming client, or a no-op publisher when
// messaging is disabled.
func Connect(cfg Config) (Publisher, error) {
	if !cfg.Enabled {
		logger.Get().Info("NATS disabled, events will not be published")
		return NopPublisher{}, nil
	}
	return NewNATSClient(cfg)
}

func NewNATSClient(cfg Config) (*NATSClient, error) {
	// Client IDs must be unique per connection within a cluster
	clientID := fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8])

	conn, err := stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS Streaming: %w", err)
	}

	logger.Get().Info("Connected to NATS Streaming",
		"url", cfg.URL, "cluster", cfg.ClusterID, "client", clientID)

	return &NATSClient{conn: conn}, nil
}

func (nc *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := nc.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}

	logger.Get().Debug("Published message", "subject", subject)
	return nil
}

// SubscribeQueue spreads messages of subject over the members of queue.
// Messages are acked manually by the handler.
func (nc *NATSClient) SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error) {
	sub, err := nc.conn.QueueSubscribe(subject, queue, handler,
		stan.DurableName(subject+"-"+queue+"-durable"),
		stan.SetManualAckMode(),
		stan.AckWait(30*time.Second),
		stan.MaxInflight(16))
	if err != nil {
		return nil, fmt.Errorf("failed to queue subscribe to subject %s: %w", subject, err)
	}

	logger.Get().Info("Subscribed to subject", "subject", subject, "queue", queue)
	return sub, nil
}

func (nc *NATSClient) Close() error {
	if nc.conn != nil {
		return nc.conn.Close()
	}
	return nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }
