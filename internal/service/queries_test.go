package service

import (
	"context"
	"errors"
	"testing"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.slot("2024-01-01", 5, 0)
	upcoming := f.slot("2024-06-01", 5, 0)

	_, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(past.ID, 1))
	require.NoError(t, err)
	_, err = f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(upcoming.ID, 1))
	require.NoError(t, err)

	p, err := f.svc.Reservations.Partition(ctx, f.staff, models.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, p.Past, 1)
	require.Len(t, p.Upcoming, 1)
	assert.Equal(t, past.ID, p.Past[0].SlotID)
	assert.Equal(t, upcoming.ID, p.Upcoming[0].SlotID)
}

func TestReservationQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.slot("2024-03-10", 10, 0)

	req := f.booking(slot.ID, 2)
	req.Status = models.StatusPending
	pending, err := f.svc.Ledger.CreateReservation(ctx, f.staff, req)
	require.NoError(t, err)
	_, err = f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 1))
	require.NoError(t, err)

	n, err := f.svc.Reservations.PendingCount(ctx, f.staff)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := f.svc.Reservations.List(ctx, f.staff, models.ReservationFilter{Status: models.StatusPending, Date: "2024-03-10"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	got, err := f.svc.Reservations.Get(ctx, f.staff, pending.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Slot)
	require.NotNil(t, got.Slot.Activity)
	assert.Equal(t, f.activity.Name, got.Slot.Activity.Name)

	_, err = f.svc.Reservations.Get(ctx, f.outsider, pending.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := f.slot(f.today, 10, 0)
	later := f.slot("2024-04-01", 10, 0)
	f.slot("2024-02-01", 10, 0)

	paid := decimal.RequireFromString("25.00")
	req := f.booking(today.ID, 2)
	req.AmountPaid = paid
	_, err := f.svc.Ledger.CreateReservation(ctx, f.staff, req)
	require.NoError(t, err)

	req = f.booking(later.ID, 3)
	req.Status = models.StatusPending
	req.AmountPaid = paid
	_, err = f.svc.Ledger.CreateReservation(ctx, f.staff, req)
	require.NoError(t, err)

	cancelled, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(today.ID, 1))
	require.NoError(t, err)
	_, err = f.svc.Ledger.CancelReservation(ctx, f.staff, cancelled.ID)
	require.NoError(t, err)

	stats, err := f.svc.Dashboard.Stats(ctx, f.staff)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActivitiesCount)
	assert.Equal(t, 2, stats.UpcomingSlotsCount)
	assert.Equal(t, 1, stats.TodayReservations)
	assert.Equal(t, 1, stats.PendingReservations)
	assert.Equal(t, 5, stats.SeatsReservedUpcoming)
	assert.True(t, paid.Equal(stats.ConfirmedRevenue))
}

func TestActivityCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc := "  Paddle along the mangroves  "
	a, err := f.svc.Activities.Create(ctx, f.staff, &models.CreateActivityRequest{
		Name:        "Mangrove paddle",
		Description: &desc,
		Capacity:    8,
		Price:       decimal.RequireFromString("49.90"),
		PaymentType: models.PaymentDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, "Paddle along the mangroves", *a.Description)

	found, err := f.svc.Activities.List(ctx, f.staff, &models.ListActivitiesRequest{Query: "mangrove"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	updated, err := f.svc.Activities.Update(ctx, f.staff, a.ID, &models.UpdateActivityRequest{Capacity: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Capacity)
	assert.Equal(t, "Mangrove paddle", updated.Name)

	_, err = f.svc.Activities.Get(ctx, f.outsider, a.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.Activities.Create(ctx, f.staff, &models.CreateActivityRequest{
		Name:        "Broken",
		Capacity:    1,
		PaymentType: "cash",
	})
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.Activities.Delete(ctx, f.staff, a.ID))
	assert.True(t, errors.Is(f.svc.Activities.Delete(ctx, f.staff, a.ID), apperrors.ErrNotFound))
	assert.Contains(t, f.events.Subjects(), models.EventActivityDeleted)
}

type fakeIndex struct {
	ids []uuid.UUID
	err error
}

func (i *fakeIndex) IndexActivity(context.Context, *models.Activity) error { return nil }
func (i *fakeIndex) DeleteActivity(context.Context, uuid.UUID) error { return nil }
func (i *fakeIndex) SearchActivities(context.Context, uuid.UUID, string, int, int) ([]uuid.UUID, error) {
	return i.ids, i.err
}

func TestActivitySearchUsesIndexOrder(t *testing.T) {
	f := newFixture(t)
	second := f.store.SeedActivity(f.org.ID, "Another kayak", 4)
	index := &fakeIndex{ids: []uuid.UUID{f.activity.ID, uuid.New(), second.ID}}
	svc := NewActivityService(f.store.Activities(), index, nil, f.events)

	found, err := svc.List(context.Background(), f.staff, &models.ListActivitiesRequest{Query: "kayak"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, f.activity.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)

	index.err = errors.New("cluster red")
	found, err = svc.List(context.Background(), f.staff, &models.ListActivitiesRequest{Query: "kayak"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
