package service

import (
	"context"
	"fmt"

	"tourdesk/internal/models"
	"tourdesk/internal/session"

	"github.com/shopspring/decimal"
)

type DashboardService struct {
	activities   ActivityStore
	slots        SlotStore
	reservations ReservationStore
	clock        Clock
}

func NewDashboardService(activities ActivityStore, slots SlotStore, reservations ReservationStore, clock Clock) *DashboardService {
	return &DashboardService{activities: activities, slots: slots, reservations: reservations, clock: clock}
}

func (s *DashboardService) Stats(ctx context.Context, sess *session.Session) (*models.DashboardStats, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	today := s.clock.today()

	stats := &models.DashboardStats{ConfirmedRevenue: decimal.Zero}

	if stats.ActivitiesCount, err = s.activities.Count(ctx, orgID); err != nil {
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}
	if stats.UpcomingSlotsCount, err = s.slots.CountUpcoming(ctx, orgID, today); err != nil {
		return nil, fmt.Errorf("failed to count slots: %w", err)
	}

	all, err := s.reservations.List(ctx, orgID, models.ReservationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	for i := range all {
		r := &all[i]
		switch r.Status {
		case models.StatusPending:
			stats.PendingReservations++
		case models.StatusConfirmed:
			stats.ConfirmedRevenue = stats.ConfirmedRevenue.Add(r.AmountPaid)
		}
		if !r.HoldsSeats() || r.Slot == nil {
			continue
		}
		if r.Slot.Date == today {
			stats.TodayReservations++
		}
		if r.Slot.Date >= today {
			stats.SeatsReservedUpcoming += r.PeopleCount
		}
	}
	return stats, nil
}
