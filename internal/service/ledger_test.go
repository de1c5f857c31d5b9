package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservationReservesSeats(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 1)
	ctx := context.Background()

	r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 3))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, f.org.ID, r.OrganizationID)
	assert.Equal(t, models.StatusConfirmed, r.Status)
	assert.Equal(t, models.PaymentFull, r.PaymentMode)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 4, got.ReservedSeats)
	assert.Equal(t, []string{models.EventReservationCreated}, f.events.Subjects())
}

func TestCreateReservationRejectsOverbooking(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 4)

	_, err := f.svc.Ledger.CreateReservation(context.Background(), f.staff, f.booking(slot.ID, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCapacityExceeded))

	var capErr *apperrors.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 1, capErr.Available)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 4, got.ReservedSeats)
	assert.Empty(t, f.store.SlotReservations(slot.ID))
	assert.Empty(t, f.events.Subjects())
}

func TestCreateReservationValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)

	req := f.booking(slot.ID, 0)
	req.CustomerEmail = "not-an-email"

	_, err := f.svc.Ledger.CreateReservation(context.Background(), f.staff, req)
	require.Error(t, err)

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "people_count")
	assert.Contains(t, verr.Fields, "customer_email")
	assert.Empty(t, f.store.SlotReservations(slot.ID))
}

func TestCreateReservationPendingHoldsSeats(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)

	req := f.booking(slot.ID, 2)
	req.Status = models.StatusPending
	_, err := f.svc.Ledger.CreateReservation(context.Background(), f.staff, req)
	require.NoError(t, err)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 2, got.ReservedSeats)
}

func TestCreateReservationScopedToOrganization(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)

	_, err := f.svc.Ledger.CreateReservation(context.Background(), f.outsider, f.booking(slot.ID, 1))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.Ledger.CreateReservation(context.Background(), nil, f.booking(slot.ID, 1))
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestConcurrentBookingsForLastSeat(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 1, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Ledger.CreateReservation(context.Background(), f.staff, f.booking(slot.ID, 1))
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrCapacityExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 1, got.ReservedSeats)
}

func TestReservedSeatsMatchActiveReservations(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 20, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 1+i%3))
			if err != nil || i%2 == 0 {
				return
			}
			_, _ = f.svc.Ledger.CancelReservation(ctx, f.staff, r.ID)
		}(i)
	}
	wg.Wait()

	held := 0
	for _, r := range f.store.SlotReservations(slot.ID) {
		if r.HoldsSeats() {
			held += r.PeopleCount
		}
	}
	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, held, got.ReservedSeats)
	assert.LessOrEqual(t, got.ReservedSeats, got.TotalSeats)
	assert.GreaterOrEqual(t, got.ReservedSeats, 0)
}

func TestCancelReservationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)
	ctx := context.Background()

	r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 3))
	require.NoError(t, err)

	first, err := f.svc.Ledger.CancelReservation(ctx, f.staff, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, first.Status)

	afterFirst, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 0, afterFirst.ReservedSeats)

	second, err := f.svc.Ledger.CancelReservation(ctx, f.staff, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, second.Status)

	afterSecond, _ := f.store.Slot(slot.ID)
	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, []string{models.EventReservationCreated, models.EventReservationCancelled}, f.events.Subjects())
}

func TestCancelFloorsReservedSeatsAtZero(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 1)
	r := f.store.SeedReservation(models.Reservation{
		OrganizationID: f.org.ID,
		SlotID:         slot.ID,
		CustomerName:   "Drifted",
		CustomerEmail:  "d@example.com",
		PeopleCount:    3,
		PaymentMode:    models.PaymentFull,
		Status:         models.StatusConfirmed,
	})

	_, err := f.svc.Ledger.CancelReservation(context.Background(), f.staff, r.ID)
	require.NoError(t, err)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 0, got.ReservedSeats)
}

func TestUpdatePeopleCountMovesSeats(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)
	ctx := context.Background()

	r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 2))
	require.NoError(t, err)

	_, err = f.svc.Ledger.UpdateReservation(ctx, f.staff, r.ID, &models.UpdateReservationRequest{PeopleCount: ptr(4)})
	require.NoError(t, err)
	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 4, got.ReservedSeats)

	_, err = f.svc.Ledger.UpdateReservation(ctx, f.staff, r.ID, &models.UpdateReservationRequest{PeopleCount: ptr(6)})
	assert.True(t, errors.Is(err, apperrors.ErrCapacityExceeded))
	got, _ = f.store.Slot(slot.ID)
	assert.Equal(t, 4, got.ReservedSeats)

	_, err = f.svc.Ledger.UpdateReservation(ctx, f.staff, r.ID, &models.UpdateReservationRequest{PeopleCount: ptr(1)})
	require.NoError(t, err)
	got, _ = f.store.Slot(slot.ID)
	assert.Equal(t, 1, got.ReservedSeats)
}

func TestReactivatingCancelledReservationNeedsCapacity(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 3, 0)
	ctx := context.Background()

	r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 2))
	require.NoError(t, err)
	_, err = f.svc.Ledger.CancelReservation(ctx, f.staff, r.ID)
	require.NoError(t, err)

	_, err = f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 2))
	require.NoError(t, err)

	_, err = f.svc.Ledger.UpdateReservation(ctx, f.staff, r.ID,
		&models.UpdateReservationRequest{Status: ptr(models.StatusPending)})
	assert.True(t, errors.Is(err, apperrors.ErrCapacityExceeded))

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 2, got.ReservedSeats)
}

func TestUpdateWithoutSeatChangeKeepsCount(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)
	ctx := context.Background()

	r, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 2))
	require.NoError(t, err)

	paid := decimal.RequireFromString("40.50")
	updated, err := f.svc.Ledger.UpdateReservation(ctx, f.staff, r.ID, &models.UpdateReservationRequest{
		AmountPaid: &paid,
		Status:     ptr(models.StatusPending),
	})
	require.NoError(t, err)
	assert.True(t, paid.Equal(updated.AmountPaid))
	assert.Equal(t, models.StatusPending, updated.Status)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 2, got.ReservedSeats)
}

func TestUpdateUnknownReservation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ledger.CancelReservation(context.Background(), f.staff, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestWidgetReservationIgnoresCallerPaymentFields(t *testing.T) {
	f := newFixture(t)
	pickup := "Harbour gate"
	slot := f.slot("2024-03-10", 5, 0)

	r, err := f.svc.Ledger.CreateWidgetReservation(context.Background(), &models.WidgetReservationRequest{
		SlotID:        slot.ID,
		CustomerName:  "Web Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   2,
		PickupPoint:   &pickup,
	})
	require.NoError(t, err)

	assert.Equal(t, f.org.ID, r.OrganizationID)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, models.PaymentOnSite, r.PaymentMode)
	assert.True(t, r.AmountPaid.IsZero())
	assert.Equal(t, []string{models.EventWidgetReservationCreated}, f.events.Subjects())
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.events.Err = errors.New("nats down")
	slot := f.slot("2024-03-10", 5, 0)

	_, err := f.svc.Ledger.CreateReservation(context.Background(), f.staff, f.booking(slot.ID, 1))
	require.NoError(t, err)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 1, got.ReservedSeats)
}

func TestReconcileSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 4)
	f.store.SeedReservation(models.Reservation{
		OrganizationID: f.org.ID,
		SlotID:         slot.ID,
		CustomerName:   "A",
		CustomerEmail:  "a@example.com",
		PeopleCount:    2,
		Status:         models.StatusConfirmed,
	})
	ctx := context.Background()

	drift, err := f.svc.Ledger.ReconcileSlot(ctx, slot.ID, false)
	require.NoError(t, err)
	require.NotNil(t, drift)
	assert.Equal(t, 4, drift.Stored)
	assert.Equal(t, 2, drift.Actual)
	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 4, got.ReservedSeats)

	_, err = f.svc.Ledger.ReconcileSlot(ctx, slot.ID, true)
	require.NoError(t, err)
	got, _ = f.store.Slot(slot.ID)
	assert.Equal(t, 2, got.ReservedSeats)

	drift, err = f.svc.Ledger.ReconcileSlot(ctx, slot.ID, true)
	require.NoError(t, err)
	assert.Nil(t, drift)
}
