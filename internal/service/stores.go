package service

import (
	"context"
	"time"

	"tourdesk/internal/models"

	"github.com/google/uuid"
)

// Transactor runs fn in one store transaction; stores called with the ctx
// handed to fn take part in it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrganizationStore interface {
	Transactor
	Create(ctx context.Context, o *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateFullName(ctx context.Context, p *models.Profile) (bool, error)
	SetOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error
	AddRole(ctx context.Context, userID, orgID uuid.UUID, role models.Role) error
	Roles(ctx context.Context, userID, orgID uuid.UUID) ([]models.Role, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Member, error)
	RemoveFromOrganization(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

type ActivityStore interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Activity, error)
	GetPublic(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.Activity, error)
	ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]models.Activity, error)
	Search(ctx context.Context, orgID uuid.UUID, text string, limit, offset int) ([]models.Activity, error)
	ListAll(ctx context.Context) ([]models.Activity, error)
	Update(ctx context.Context, a *models.Activity) error
	Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	Count(ctx context.Context, orgID uuid.UUID) (int, error)
}

type SlotStore interface {
	Transactor
	Create(ctx context.Context, s *models.Slot) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.SlotWithActivity, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	List(ctx context.Context, orgID uuid.UUID, f models.SlotFilter) ([]models.SlotWithActivity, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID, from, to string) ([]models.Slot, error)
	Update(ctx context.Context, s *models.Slot) error
	Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	CountUpcoming(ctx context.Context, orgID uuid.UUID, today string) (int, error)
	FindSeatDrift(ctx context.Context) ([]models.SeatDrift, error)
}

// LedgerStore is everything the seat ledger touches inside its transaction.
// GetSlotForUpdate must hold the slot row until the transaction ends.
type LedgerStore interface {
	Transactor
	GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	SetReservedSeats(ctx context.Context, slotID uuid.UUID, reserved int) error
	GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	InsertReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	HeldSeats(ctx context.Context, slotID uuid.UUID) (int, error)
}

type ReservationStore interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.ReservationWithSlot, error)
	List(ctx context.Context, orgID uuid.UUID, f models.ReservationFilter) ([]models.ReservationWithSlot, error)
	CountByStatus(ctx context.Context, orgID uuid.UUID, status models.ReservationStatus) (int, error)
}

// EventPublisher is the fire-and-forget notification sink
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// ActivityIndex is the optional full-text index over activities
type ActivityIndex interface {
	IndexActivity(ctx context.Context, a *models.Activity) error
	DeleteActivity(ctx context.Context, id uuid.UUID) error
	SearchActivities(ctx context.Context, orgID uuid.UUID, text string, page, pageSize int) ([]uuid.UUID, error)
}

// Cache is the optional read-through cache for hot lookups
type Cache interface {
	GetPrincipal(ctx context.Context, userID uuid.UUID) (*models.Principal, bool)
	SetPrincipal(ctx context.Context, p *models.Principal)
	InvalidatePrincipal(ctx context.Context, userID uuid.UUID)
	GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, bool)
	SetActivity(ctx context.Context, a *models.Activity)
	InvalidateActivity(ctx context.Context, id uuid.UUID)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Generate(userID uuid.UUID, email string) (string, error)
}

// Clock returns the current time; "today" is derived from it
type Clock func() time.Time

const dateLayout = "2006-01-02"

func (c Clock) today() string {
	if c == nil {
		return time.Now().Format(dateLayout)
	}
	return c().Format(dateLayout)
}
