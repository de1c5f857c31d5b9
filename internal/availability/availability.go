// Package availability computes remaining seat capacity of a slot.
package availability

import "tourdesk/internal/models"

// AvailableSeats returns the remaining capacity, never negative
func AvailableSeats(totalSeats, reservedSeats int) int {
	if free := totalSeats - reservedSeats; free > 0 {
		return free
	}
	return 0
}

// HasCapacity reports whether partySize more people fit. A party smaller than
// one never fits.
func HasCapacity(totalSeats, reservedSeats, partySize int) bool {
	return partySize >= 1 && partySize <= AvailableSeats(totalSeats, reservedSeats)
}

func ForSlot(slot *models.Slot) int {
	return AvailableSeats(slot.TotalSeats, slot.ReservedSeats)
}

func SlotHasCapacity(slot *models.Slot, partySize int) bool {
	return HasCapacity(slot.TotalSeats, slot.ReservedSeats, partySize)
}

// Bookable reports whether at least one seat is left
func Bookable(slot *models.Slot) bool {
	return ForSlot(slot) > 0
}
