package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []Notification
	err error
}

func (s *recordingSink) Notify(_ context.Context, n Notification) error {
	s.got = append(s.got, n)
	return s.err
}

func TestProcessReservationEvent(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandlers(sink)
	org := uuid.New()

	data, err := json.Marshal(models.ReservationEvent{
		ReservationID:  uuid.New(),
		OrganizationID: org,
		SlotID:         uuid.New(),
		PeopleCount:    3,
		Status:         models.StatusPending,
		SeatDelta:      3,
		ReservedSeats:  7,
	})
	require.NoError(t, err)

	require.NoError(t, h.Process(context.Background(), models.EventWidgetReservationCreated, data))

	require.Len(t, sink.got, 1)
	assert.Equal(t, org, sink.got[0].OrganizationID)
	assert.Equal(t, "New widget reservation awaiting confirmation", sink.got[0].Summary)
	assert.Contains(t, sink.got[0].Fields, "seat_delta")
}

func TestProcessEverySubject(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandlers(sink)

	for _, subject := range Subjects {
		require.NoError(t, h.Process(context.Background(), subject, []byte(`{}`)), subject)
	}
	assert.Len(t, sink.got, len(Subjects))
}

func TestProcessRejectsBadInput(t *testing.T) {
	h := NewHandlers(&recordingSink{})

	assert.Error(t, h.Process(context.Background(), models.EventSlotCreated, []byte("not json")))
	assert.Error(t, h.Process(context.Background(), "booking.created", []byte(`{}`)))
}

func TestSinkFailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("smtp down")}
	h := NewHandlers(sink)

	assert.NoError(t, h.Process(context.Background(), models.EventSlotDeleted, []byte(`{}`)))
	assert.Len(t, sink.got, 1)
}
