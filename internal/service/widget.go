package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/query"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
)

// WidgetService backs the public booking widget. Nothing here trusts the caller.
type WidgetService struct {
	activities ActivityStore
	slots      SlotStore
	ledger     *LedgerService
	cache      Cache
	clock      Clock
}

func NewWidgetService(activities ActivityStore, slots SlotStore, ledger *LedgerService, cache Cache, clock Clock) *WidgetService {
	return &WidgetService{activities: activities, slots: slots, ledger: ledger, cache: cache, clock: clock}
}

func (s *WidgetService) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	if s.cache != nil {
		if a, ok := s.cache.GetActivity(ctx, id); ok {
			return a, nil
		}
	}

	a, err := s.activities.GetPublic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if a == nil {
		return nil, apperrors.NotFound("activity", id)
	}

	if s.cache != nil {
		s.cache.SetActivity(ctx, a)
	}
	return a, nil
}

// ListAvailableSlots returns the activity's bookable slots in [from, to].
// Without bounds the window runs from the start of the current month to the
// end of the next one. Past slots and full slots are left out.
func (s *WidgetService) ListAvailableSlots(ctx context.Context, activityID uuid.UUID, req *models.WidgetSlotsRequest) ([]models.Slot, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}

	today := s.clock.today()
	from, to := req.From, req.To
	if from == "" || to == "" {
		defFrom, defTo := bookingWindow(today)
		if from == "" {
			from = defFrom
		}
		if to == "" {
			to = defTo
		}
	}
	if to < from {
		return []models.Slot{}, nil
	}

	slots, err := s.slots.ListByActivity(ctx, activityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return query.AvailableSlotsForBooking(slots, activityID, today), nil
}

// CreateReservation is the unauthenticated booking entry point. Failures are
// reported in the result rather than as errors, except for store failures.
func (s *WidgetService) CreateReservation(ctx context.Context, req *models.WidgetReservationRequest) (*models.WidgetReservationResult, error) {
	r, err := s.ledger.CreateWidgetReservation(ctx, req)
	if err == nil {
		id := r.ID
		return &models.WidgetReservationResult{
			Success:       true,
			ReservationID: &id,
			Message:       "Reservation received",
		}, nil
	}

	var capErr *apperrors.CapacityError
	switch {
	case errors.As(err, &capErr):
		return &models.WidgetReservationResult{
			Error: fmt.Sprintf("Only %d seats left for this departure", capErr.Available),
		}, nil
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return &models.WidgetReservationResult{Error: "Not enough seats left for this departure"}, nil
	case apperrors.IsValidation(err):
		return &models.WidgetReservationResult{Error: err.Error()}, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return &models.WidgetReservationResult{Error: "This departure is no longer available"}, nil
	}

	logger.WithContext(ctx).Error("Widget reservation failed", "slot_id", req.SlotID, "error", err)
	return nil, err
}

// bookingWindow is [first day of today's month, last day of the following month]
func bookingWindow(today string) (string, string) {
	t, err := time.Parse(dateLayout, today)
	if err != nil {
		t = time.Now()
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 2, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}
