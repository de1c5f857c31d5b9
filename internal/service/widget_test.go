package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgetListsBookableSlotsInDefaultWindow(t *testing.T) {
	f := newFixture(t)
	f.slot("2024-02-28", 5, 0) // past
	open := f.slot("2024-03-05", 5, 2)
	f.slot("2024-03-06", 5, 5) // full
	late := f.slot("2024-04-30", 5, 0)
	f.slot("2024-05-01", 5, 0) // outside window

	slots, err := f.svc.Widget.ListAvailableSlots(context.Background(), f.activity.ID, &models.WidgetSlotsRequest{})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, open.ID, slots[0].ID)
	assert.Equal(t, late.ID, slots[1].ID)
}

func TestWidgetUnknownActivity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Widget.GetActivity(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestWidgetReservationResult(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 2, 1)
	ctx := context.Background()

	res, err := f.svc.Widget.CreateReservation(ctx, &models.WidgetReservationRequest{
		SlotID:        slot.ID,
		CustomerName:  "Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   2,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "1 seats left")

	res, err = f.svc.Widget.CreateReservation(ctx, &models.WidgetReservationRequest{
		SlotID:        uuid.New(),
		CustomerName:  "Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   1,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = f.svc.Widget.CreateReservation(ctx, &models.WidgetReservationRequest{
		SlotID:        slot.ID,
		CustomerName:  "Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   1,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.ReservationID)

	got, _ := f.store.Slot(slot.ID)
	assert.Equal(t, 2, got.ReservedSeats)
}

func TestBookingWindow(t *testing.T) {
	from, to := bookingWindow("2024-01-31")
	assert.Equal(t, "2024-01-01", from)
	assert.Equal(t, "2024-02-29", to)

	from, to = bookingWindow("2024-12-15")
	assert.Equal(t, "2024-12-01", from)
	assert.Equal(t, "2025-01-31", to)
}

// constraintLedger rejects every seat write the way the slots check constraint does
type constraintLedger struct {
	LedgerStore
}

func (constraintLedger) SetReservedSeats(context.Context, uuid.UUID, int) error {
	return fmt.Errorf("set reserved seats: %w", apperrors.ErrCapacityExceeded)
}

func TestWidgetReservationRejectedByStoreConstraint(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 4, 0)

	clock := func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	ledger := NewLedgerService(constraintLedger{f.store.Ledger()}, f.events)
	ledger.now = clock
	widget := NewWidgetService(f.store.Activities(), f.store.Slots(), ledger, nil, clock)

	res, err := widget.CreateReservation(context.Background(), &models.WidgetReservationRequest{
		SlotID:        slot.ID,
		CustomerName:  "Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   1,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Not enough seats left for this departure", res.Error)
	assert.Empty(t, f.store.SlotReservations(slot.ID))
}

func TestWidgetRejectsDepartedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.slot("2024-02-28", 5, 0)
	today := f.slot(f.today, 5, 0)

	req := &models.WidgetReservationRequest{
		SlotID:        past.ID,
		CustomerName:  "Guest",
		CustomerEmail: "guest@example.com",
		PeopleCount:   1,
	}
	res, err := f.svc.Widget.CreateReservation(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "already left")
	assert.Empty(t, f.store.SlotReservations(past.ID))

	_, err = f.svc.Ledger.CreateWidgetReservation(ctx, req)
	assert.True(t, apperrors.IsValidation(err))

	req.SlotID = today.ID
	res, err = f.svc.Widget.CreateReservation(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestStaffCanStillBookDepartedSlot(t *testing.T) {
	f := newFixture(t)
	past := f.slot("2024-02-28", 5, 0)

	res, err := f.svc.Ledger.CreateReservation(context.Background(), f.staff, &models.CreateReservationRequest{
		SlotID:        past.ID,
		CustomerName:  "Walk-in",
		CustomerEmail: "walkin@example.com",
		PeopleCount:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, past.ID, res.SlotID)
}
