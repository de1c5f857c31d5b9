package availability

import (
	"testing"

	"tourdesk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAvailableSeats(t *testing.T) {
	assert.Equal(t, 0, AvailableSeats(5, 5))
	assert.Equal(t, 3, AvailableSeats(5, 2))
	assert.Equal(t, 0, AvailableSeats(5, 7))
}

func TestHasCapacity(t *testing.T) {
	assert.False(t, HasCapacity(5, 5, 1))
	assert.True(t, HasCapacity(5, 4, 1))
	assert.True(t, HasCapacity(5, 0, 5))
	assert.False(t, HasCapacity(5, 0, 6))
}

func TestSlotHelpers(t *testing.T) {
	full := &models.Slot{TotalSeats: 5, ReservedSeats: 5}
	open := &models.Slot{TotalSeats: 5, ReservedSeats: 3}

	assert.Equal(t, 0, ForSlot(full))
	assert.False(t, Bookable(full))
	assert.False(t, SlotHasCapacity(full, 1))

	assert.Equal(t, 2, ForSlot(open))
	assert.True(t, Bookable(open))
	assert.True(t, SlotHasCapacity(open, 2))
	assert.False(t, SlotHasCapacity(open, 3))
}
