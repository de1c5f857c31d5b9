package service

import (
	"testing"
	"time"

	"tourdesk/internal/auth"
	"tourdesk/internal/models"
	"tourdesk/internal/repository/memstore"
	"tourdesk/internal/session"

	"github.com/google/uuid"
)

type fixture struct {
	store    *memstore.Store
	events   *memstore.Publisher
	svc      *Services
	org      models.Organization
	activity models.Activity
	staff    *session.Session
	admin    *session.Session
	outsider *session.Session
	today    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	events := &memstore.Publisher{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	svc := NewServices(Dependencies{
		Organizations: store.Organizations(),
		Profiles:      store.Profiles(),
		Activities:    store.Activities(),
		Slots:         store.Slots(),
		Reservations:  store.Reservations(),
		Ledger:        store.Ledger(),
		Publisher:     events,
		Tokens:        auth.NewJWTService("test-secret", 1),
		Clock:         func() time.Time { return now },
	})

	org := store.SeedOrganization("Lagoon Tours")
	other := store.SeedOrganization("Other Co")
	activity := store.SeedActivity(org.ID, "Sunset kayak", 10)

	return &fixture{
		store:    store,
		events:   events,
		svc:      svc,
		org:      org,
		activity: activity,
		staff:    session.New(uuid.New(), &org.ID, models.RoleStaff),
		admin:    session.New(uuid.New(), &org.ID, models.RoleAdmin),
		outsider: session.New(uuid.New(), &other.ID, models.RoleAdmin),
		today:    "2024-03-01",
	}
}

func (f *fixture) slot(date string, total, reserved int) models.Slot {
	return f.store.SeedSlot(f.activity, date, "09:00", total, reserved)
}

func (f *fixture) booking(slotID uuid.UUID, people int) *models.CreateReservationRequest {
	return &models.CreateReservationRequest{
		SlotID:        slotID,
		CustomerName:  "Ana Lima",
		CustomerEmail: "ana@example.com",
		PeopleCount:   people,
	}
}

func ptr[T any](v T) *T { return &v }
