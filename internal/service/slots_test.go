package service

import (
	"context"
	"errors"
	"testing"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecurringSlots(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Slots.CreateRecurring(context.Background(), f.staff, &models.CreateRecurringSlotsRequest{
		ActivityID: f.activity.ID,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-15",
		Frequency:  "weekly",
		Weekdays:   []int{1, 3},
		Time:       "08:30",
		TotalSeats: 12,
	})
	require.NoError(t, err)

	want := []string{"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10", "2024-01-15"}
	assert.Equal(t, want, res.Requested)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Created, 5)
	for i, s := range res.Created {
		assert.Equal(t, want[i], s.Date)
		assert.Equal(t, "08:30", s.Time)
		assert.Equal(t, 12, s.TotalSeats)
		assert.Equal(t, 0, s.ReservedSeats)
	}
}

func TestCreateRecurringReportsPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailSlotCreate("2024-01-08", errors.New("connection reset"))

	res, err := f.svc.Slots.CreateRecurring(context.Background(), f.staff, &models.CreateRecurringSlotsRequest{
		ActivityID: f.activity.ID,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-15",
		Frequency:  "weekly",
		Weekdays:   []int{1},
		Time:       "08:30",
		TotalSeats: 4,
	})
	require.NoError(t, err)

	assert.Len(t, res.Created, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "2024-01-08", res.Failed[0].Date)
	assert.Contains(t, res.Failed[0].Error, "connection reset")
}

func TestCreateRecurringRequiresWeekdays(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Slots.CreateRecurring(context.Background(), f.staff, &models.CreateRecurringSlotsRequest{
		ActivityID: f.activity.ID,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-15",
		Frequency:  "weekly",
		Time:       "08:30",
		TotalSeats: 4,
	})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "weekdays")
}

func TestCreateRecurringRejectsOversizedRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Slots.CreateRecurring(ctx, f.staff, &models.CreateRecurringSlotsRequest{
		ActivityID: f.activity.ID,
		StartDate:  "2024-03-01",
		EndDate:    "2099-12-31",
		Frequency:  "weekly",
		Weekdays:   []int{0, 1, 2, 3, 4, 5, 6},
		Time:       "08:30",
		TotalSeats: 4,
	})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "end_date")

	slots, err := f.svc.Slots.List(ctx, f.staff, models.SlotFilter{})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCreateRecurringNoneCreatesSingleSlot(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Slots.CreateRecurring(context.Background(), f.staff, &models.CreateRecurringSlotsRequest{
		ActivityID: f.activity.ID,
		StartDate:  "2024-02-29",
		Frequency:  "none",
		Time:       "18:00",
		TotalSeats: 4,
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "2024-02-29", res.Created[0].Date)
}

func TestCreateSlotForeignActivity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Slots.Create(context.Background(), f.outsider, &models.CreateSlotRequest{
		ActivityID: f.activity.ID,
		Date:       "2024-03-10",
		Time:       "09:00",
		TotalSeats: 4,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCreateSlotRejectsBadClock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Slots.Create(context.Background(), f.staff, &models.CreateSlotRequest{
		ActivityID: f.activity.ID,
		Date:       "2024-02-30",
		Time:       "9h",
		TotalSeats: 0,
	})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "date")
	assert.Contains(t, verr.Fields, "time")
	assert.Contains(t, verr.Fields, "total_seats")
}

func TestUpdateSlotKeepsReservedSeats(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 6, 4)
	ctx := context.Background()

	_, err := f.svc.Slots.Update(ctx, f.staff, slot.ID, &models.UpdateSlotRequest{TotalSeats: ptr(3)})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "total_seats")

	updated, err := f.svc.Slots.Update(ctx, f.staff, slot.ID, &models.UpdateSlotRequest{
		TotalSeats: ptr(4),
		Time:       ptr("10:15"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.TotalSeats)
	assert.Equal(t, 4, updated.ReservedSeats)
	assert.Equal(t, "10:15", updated.Time)
	require.NotNil(t, updated.Activity)
	assert.Equal(t, f.activity.Name, updated.Activity.Name)
}

func TestListSlotsFiltersAndOrders(t *testing.T) {
	f := newFixture(t)
	other := f.store.SeedActivity(f.org.ID, "Reef snorkel", 8)
	f.store.SeedSlot(f.activity, "2024-03-12", "14:00", 5, 0)
	f.store.SeedSlot(f.activity, "2024-03-12", "09:00", 5, 0)
	f.store.SeedSlot(f.activity, "2024-03-20", "09:00", 5, 0)
	f.store.SeedSlot(other, "2024-03-12", "11:00", 5, 0)

	slots, err := f.svc.Slots.List(context.Background(), f.staff, models.SlotFilter{
		ActivityID: &f.activity.ID,
		From:       "2024-03-01",
		To:         "2024-03-12",
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "14:00", slots[1].Time)

	days, err := f.svc.Slots.Calendar(context.Background(), f.staff, models.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-12", days[0].Date)
	assert.Len(t, days[0].Slots, 3)
}

func TestDeleteSlotCascades(t *testing.T) {
	f := newFixture(t)
	slot := f.slot("2024-03-10", 5, 0)
	ctx := context.Background()

	_, err := f.svc.Ledger.CreateReservation(ctx, f.staff, f.booking(slot.ID, 2))
	require.NoError(t, err)

	require.True(t, errors.Is(f.svc.Slots.Delete(ctx, f.outsider, slot.ID), apperrors.ErrNotFound))
	require.NoError(t, f.svc.Slots.Delete(ctx, f.staff, slot.ID))

	_, ok := f.store.Slot(slot.ID)
	assert.False(t, ok)
	assert.Empty(t, f.store.SlotReservations(slot.ID))
	assert.Contains(t, f.events.Subjects(), models.EventSlotDeleted)
}
