package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"tourdesk/internal/logger"
	"tourdesk/internal/metrics"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/nats-io/stan.go"
)

// Subjects the consumers listen to
var Subjects = []string{
	models.EventReservationCreated,
	models.EventReservationUpdated,
	models.EventReservationCancelled,
	models.EventWidgetReservationCreated,
	models.EventSlotCreated,
	models.EventSlotDeleted,
	models.EventActivityDeleted,
	models.EventSeatsReconciled,
}

// Notification is what reaches the staff notification channel
type Notification struct {
	Subject        string
	OrganizationID uuid.UUID
	Summary        string
	Fields         []any
}

// Sink delivers notifications. Delivery is fire-and-forget.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, n Notification) error {
	args := append([]any{"subject", n.Subject, "organization_id", n.OrganizationID}, n.Fields...)
	logger.WithContext(ctx).Info(n.Summary, args...)
	return nil
}

type Handlers struct {
	sink Sink
}

func NewHandlers(sink Sink) *Handlers {
	if sink == nil {
		sink = LogSink{}
	}
	return &Handlers{sink: sink}
}

// MsgHandler wraps Process for a NATS Streaming subscription. Messages are
// acked once handled; undecodable payloads are acked too so they are not
// redelivered forever.
func (h *Handlers) MsgHandler(subject string) stan.MsgHandler {
	return func(m *stan.Msg) {
		ctx := logger.ContextWithRequestID(context.Background(), fmt.Sprintf("%s#%d", subject, m.Sequence))

		if err := h.Process(ctx, subject, m.Data); err != nil {
			logger.WithContext(ctx).Error("Failed to process event", "subject", subject, "error", err)
		}

		if err := m.Ack(); err != nil {
			logger.WithContext(ctx).Error("Failed to ack event", "subject", subject, "error", err)
		}
	}
}

// Process decodes one event and forwards it to the sink
func (h *Handlers) Process(ctx context.Context, subject string, data []byte) error {
	n, err := decode(subject, data)
	if err != nil {
		return err
	}

	if err := h.sink.Notify(ctx, n); err != nil {
		logger.WithContext(ctx).Warn("Notification delivery failed", "subject", subject, "error", err)
		return nil
	}
	metrics.Notifications.WithLabelValues(subject).Inc()
	return nil
}

func decode(subject string, data []byte) (Notification, error) {
	switch subject {
	case models.EventReservationCreated, models.EventReservationUpdated,
		models.EventReservationCancelled, models.EventWidgetReservationCreated:
		var evt models.ReservationEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return Notification{}, fmt.Errorf("failed to unmarshal %s event: %w", subject, err)
		}
		return Notification{
			Subject:        subject,
			OrganizationID: evt.OrganizationID,
			Summary:        reservationSummary(subject),
			Fields: []any{
				"reservation_id", evt.ReservationID,
				"slot_id", evt.SlotID,
				"people_count", evt.PeopleCount,
				"status", evt.Status,
				"seat_delta", evt.SeatDelta,
				"reserved_seats", evt.ReservedSeats,
			},
		}, nil

	case models.EventSlotCreated, models.EventSlotDeleted:
		var evt models.SlotEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return Notification{}, fmt.Errorf("failed to unmarshal %s event: %w", subject, err)
		}
		summary := "Slot created"
		if subject == models.EventSlotDeleted {
			summary = "Slot deleted"
		}
		return Notification{
			Subject:        subject,
			OrganizationID: evt.OrganizationID,
			Summary:        summary,
			Fields:         []any{"slot_id", evt.SlotID, "activity_id", evt.ActivityID, "date", evt.Date, "time", evt.Time},
		}, nil

	case models.EventActivityDeleted:
		var evt models.ActivityDeletedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return Notification{}, fmt.Errorf("failed to unmarshal %s event: %w", subject, err)
		}
		return Notification{
			Subject:        subject,
			OrganizationID: evt.OrganizationID,
			Summary:        "Activity deleted",
			Fields:         []any{"activity_id", evt.ActivityID},
		}, nil

	case models.EventSeatsReconciled:
		var evt models.SeatsReconciledEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return Notification{}, fmt.Errorf("failed to unmarshal %s event: %w", subject, err)
		}
		return Notification{
			Subject:        subject,
			OrganizationID: evt.OrganizationID,
			Summary:        "Seat count corrected",
			Fields:         []any{"slot_id", evt.SlotID, "stored", evt.Stored, "actual", evt.Actual},
		}, nil
	}

	return Notification{}, fmt.Errorf("unknown subject %q", subject)
}

func reservationSummary(subject string) string {
	switch subject {
	case models.EventWidgetReservationCreated:
		return "New widget reservation awaiting confirmation"
	case models.EventReservationCancelled:
		return "Reservation cancelled"
	case models.EventReservationUpdated:
		return "Reservation updated"
	}
	return "Reservation created"
}
