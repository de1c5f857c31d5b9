package models

import (
	"time"

	"github.com/google/uuid"
)

// NATS Event Types
const (
	EventReservationCreated       = "reservation.created"
	EventReservationUpdated       = "reservation.updated"
	EventReservationCancelled     = "reservation.cancelled"
	EventWidgetReservationCreated = "widget.reservation.created"
	EventSlotCreated              = "slot.created"
	EventSlotDeleted              = "slot.deleted"
	EventActivityDeleted          = "activity.deleted"
	EventSeatsReconciled          = "slot.seats.reconciled"
)

// ReservationEvent is published after any committed seat ledger mutation
type ReservationEvent struct {
	ReservationID  uuid.UUID         `json:"reservation_id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	SlotID         uuid.UUID         `json:"slot_id"`
	PeopleCount    int               `json:"people_count"`
	Status         ReservationStatus `json:"status"`
	SeatDelta      int               `json:"seat_delta"`
	ReservedSeats  int               `json:"reserved_seats"`
	ActorID        *uuid.UUID        `json:"actor_id,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// SlotEvent represents a slot creation or deletion
type SlotEvent struct {
	SlotID         uuid.UUID `json:"slot_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ActivityID     uuid.UUID `json:"activity_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Timestamp      time.Time `json:"timestamp"`
}

// ActivityDeletedEvent represents an activity removal
type ActivityDeletedEvent struct {
	ActivityID     uuid.UUID `json:"activity_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// SeatsReconciledEvent is emitted when the reconciliation job corrects drift
type SeatsReconciledEvent struct {
	SlotID         uuid.UUID `json:"slot_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Stored         int       `json:"stored"`
	Actual         int       `json:"actual"`
	Timestamp      time.Time `json:"timestamp"`
}
