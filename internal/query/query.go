// Package query filters, sorts and partitions slots and reservations.
//
// All date comparisons are done on YYYY-MM-DD strings, which order the same
// way as the calendar dates they name.
package query

import (
	"sort"

	"tourdesk/internal/availability"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

// SortSlots orders slots ascending by (date, time) in place
func SortSlots[S ~[]E, E any](slots S, key func(*E) *models.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := key(&slots[i]), key(&slots[j])
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})
}

func slotOf(s *models.Slot) *models.Slot { return s }

func joinedSlotOf(s *models.SlotWithActivity) *models.Slot { return &s.Slot }

// InRange reports whether date lies in the inclusive [from, to] range; empty bounds are open
func InRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

// FilterSlots applies the activity and date range filter and returns slots sorted by (date, time)
func FilterSlots(slots []models.SlotWithActivity, f models.SlotFilter) []models.SlotWithActivity {
	out := make([]models.SlotWithActivity, 0, len(slots))
	for _, s := range slots {
		if f.ActivityID != nil && s.ActivityID != *f.ActivityID {
			continue
		}
		if !InRange(s.Date, f.From, f.To) {
			continue
		}
		out = append(out, s)
	}
	SortSlots(out, joinedSlotOf)
	return out
}

// AvailableSlotsForBooking returns the activity's slots dated today or later that still have a free seat
func AvailableSlotsForBooking(slots []models.Slot, activityID uuid.UUID, today string) []models.Slot {
	out := make([]models.Slot, 0, len(slots))
	for i := range slots {
		s := &slots[i]
		if s.ActivityID != activityID || s.Date < today {
			continue
		}
		if !availability.Bookable(s) {
			continue
		}
		out = append(out, *s)
	}
	SortSlots(out, slotOf)
	return out
}

// SplitSlots separates future slots (ascending) from past ones (most recent first)
func SplitSlots(slots []models.SlotWithActivity, today string) (upcoming, past []models.SlotWithActivity) {
	upcoming = []models.SlotWithActivity{}
	past = []models.SlotWithActivity{}
	for _, s := range slots {
		if s.Date >= today {
			upcoming = append(upcoming, s)
		} else {
			past = append(past, s)
		}
	}
	SortSlots(upcoming, joinedSlotOf)
	SortSlots(past, joinedSlotOf)
	for i, j := 0, len(past)-1; i < j; i, j = i+1, j-1 {
		past[i], past[j] = past[j], past[i]
	}
	return upcoming, past
}

// GroupSlotsByDate buckets slots per day for calendar views, days ascending
func GroupSlotsByDate(slots []models.SlotWithActivity) []models.CalendarDay {
	sorted := make([]models.SlotWithActivity, len(slots))
	copy(sorted, slots)
	SortSlots(sorted, joinedSlotOf)

	days := []models.CalendarDay{}
	for _, s := range sorted {
		if n := len(days); n > 0 && days[n-1].Date == s.Date {
			days[n-1].Slots = append(days[n-1].Slots, s)
			continue
		}
		days = append(days, models.CalendarDay{Date: s.Date, Slots: []models.SlotWithActivity{s}})
	}
	return days
}

// PartitionReservations splits reservations into upcoming (slot date >= today,
// ascending) and past (slot date < today, descending). Reservations without a
// resolvable slot are left out of both.
func PartitionReservations(all []models.ReservationWithSlot, today string) models.ReservationPartition {
	p := models.ReservationPartition{
		Upcoming: []models.ReservationWithSlot{},
		Past:     []models.ReservationWithSlot{},
	}
	for _, r := range all {
		if r.Slot == nil {
			continue
		}
		if r.Slot.Date >= today {
			p.Upcoming = append(p.Upcoming, r)
		} else {
			p.Past = append(p.Past, r)
		}
	}

	sort.SliceStable(p.Upcoming, func(i, j int) bool {
		return slotKey(p.Upcoming[i]) < slotKey(p.Upcoming[j])
	})
	sort.SliceStable(p.Past, func(i, j int) bool {
		return slotKey(p.Past[i]) > slotKey(p.Past[j])
	})
	return p
}

func slotKey(r models.ReservationWithSlot) string {
	return r.Slot.Date + " " + r.Slot.Time
}

// FilterReservations keeps reservations matching every set filter
func FilterReservations(all []models.ReservationWithSlot, f models.ReservationFilter) []models.ReservationWithSlot {
	out := make([]models.ReservationWithSlot, 0, len(all))
	for _, r := range all {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Date != "" && (r.Slot == nil || r.Slot.Date != f.Date) {
			continue
		}
		if f.ActivityID != nil && (r.Slot == nil || r.Slot.ActivityID != *f.ActivityID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountByStatus tallies reservations per status
func CountByStatus(all []models.ReservationWithSlot) map[models.ReservationStatus]int {
	counts := map[models.ReservationStatus]int{}
	for _, r := range all {
		counts[r.Status]++
	}
	return counts
}
