package service

import (
	"context"
	"fmt"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/metrics"
	"tourdesk/internal/models"
	"tourdesk/internal/query"
	"tourdesk/internal/recurrence"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
)

const (
	modeSingle    = "single"
	modeRecurring = "recurring"
)

type SlotService struct {
	slots      SlotStore
	activities ActivityStore
	publisher  EventPublisher
	clock      Clock
}

func NewSlotService(slots SlotStore, activities ActivityStore, publisher EventPublisher, clock Clock) *SlotService {
	return &SlotService{slots: slots, activities: activities, publisher: publisher, clock: clock}
}

// slotTemplate is what every slot of a batch shares
type slotTemplate struct {
	orgID      uuid.UUID
	activityID uuid.UUID
	time       string
	totalSeats int
	pickup     *string
}

func (s *SlotService) Create(ctx context.Context, sess *session.Session, req *models.CreateSlotRequest) (*models.Slot, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		metrics.SlotsCreated.WithLabelValues(modeSingle, metrics.OutcomeInvalid).Inc()
		return nil, err
	}
	if err := s.requireActivity(ctx, orgID, req.ActivityID); err != nil {
		return nil, err
	}

	tpl := slotTemplate{
		orgID:      orgID,
		activityID: req.ActivityID,
		time:       validation.NormalizeClockTime(req.Time),
		totalSeats: req.TotalSeats,
		pickup:     validation.Trimmed(req.DefaultPickupPoint),
	}
	slot, err := s.createOne(ctx, tpl, req.Date)
	if err != nil {
		metrics.SlotsCreated.WithLabelValues(modeSingle, metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	metrics.SlotsCreated.WithLabelValues(modeSingle, metrics.OutcomeCreated).Inc()
	return slot, nil
}

// CreateRecurring expands the rule and creates one slot per date. Each date is
// an independent insert: a failure is reported for that date and the others
// still go through.
func (s *SlotService) CreateRecurring(ctx context.Context, sess *session.Session, req *models.CreateRecurringSlotsRequest) (*models.BatchSlotResult, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	freq := recurrence.Frequency(req.Frequency)
	if freq != recurrence.None {
		v := apperrors.NewValidationError()
		if req.EndDate == "" {
			v.Add("end_date", "is required")
		}
		if len(req.Weekdays) == 0 {
			v.Add("weekdays", "select at least one weekday")
		}
		if err := v.OrNil(); err != nil {
			return nil, err
		}
	}

	dates, err := recurrence.Expand(recurrence.Rule{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Frequency: freq,
		Weekdays:  req.Weekdays,
	})
	if err != nil {
		return nil, err
	}
	if err := s.requireActivity(ctx, orgID, req.ActivityID); err != nil {
		return nil, err
	}

	tpl := slotTemplate{
		orgID:      orgID,
		activityID: req.ActivityID,
		time:       validation.NormalizeClockTime(req.Time),
		totalSeats: req.TotalSeats,
		pickup:     validation.Trimmed(req.DefaultPickupPoint),
	}

	result := &models.BatchSlotResult{
		Requested: dates,
		Created:   []models.Slot{},
		Failed:    []models.SlotFailure{},
	}
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, models.SlotFailure{Date: date, Error: err.Error()})
			continue
		}
		slot, err := s.createOne(ctx, tpl, date)
		if err != nil {
			metrics.SlotsCreated.WithLabelValues(modeRecurring, metrics.OutcomeFailed).Inc()
			logger.WithContext(ctx).Warn("Failed to create recurring slot", "date", date, "error", err)
			result.Failed = append(result.Failed, models.SlotFailure{Date: date, Error: err.Error()})
			continue
		}
		metrics.SlotsCreated.WithLabelValues(modeRecurring, metrics.OutcomeCreated).Inc()
		result.Created = append(result.Created, *slot)
	}

	logger.WithContext(ctx).Info("Recurring slots created",
		"activity_id", req.ActivityID, "requested", len(dates),
		"created", len(result.Created), "failed", len(result.Failed))
	return result, nil
}

func (s *SlotService) createOne(ctx context.Context, tpl slotTemplate, date string) (*models.Slot, error) {
	slot := &models.Slot{
		OrganizationID:     tpl.orgID,
		ActivityID:         tpl.activityID,
		Date:               date,
		Time:               tpl.time,
		TotalSeats:         tpl.totalSeats,
		DefaultPickupPoint: tpl.pickup,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, models.EventSlotCreated, slotEvent(slot), "slot_id", slot.ID)
	return slot, nil
}

func (s *SlotService) requireActivity(ctx context.Context, orgID, activityID uuid.UUID) error {
	a, err := s.activities.GetByID(ctx, orgID, activityID)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}
	if a == nil {
		return apperrors.NotFound("activity", activityID)
	}
	return nil
}

func (s *SlotService) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*models.SlotWithActivity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == nil {
		return nil, apperrors.NotFound("slot", id)
	}
	return slot, nil
}

// List returns the org's slots matching the filter, ordered by (date, time)
func (s *SlotService) List(ctx context.Context, sess *session.Session, f models.SlotFilter) ([]models.SlotWithActivity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(f); err != nil {
		return nil, err
	}

	slots, err := s.slots.List(ctx, orgID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return query.FilterSlots(slots, f), nil
}

// Calendar groups the filtered slots per day
func (s *SlotService) Calendar(ctx context.Context, sess *session.Session, f models.SlotFilter) ([]models.CalendarDay, error) {
	slots, err := s.List(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	return query.GroupSlotsByDate(slots), nil
}

// Update edits date, time, seats and pickup point. total_seats can never drop
// below the seats already reserved; the slot is locked while that is checked.
func (s *SlotService) Update(ctx context.Context, sess *session.Session, id uuid.UUID, req *models.UpdateSlotRequest) (*models.SlotWithActivity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	err = s.slots.WithTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if slot == nil || slot.OrganizationID != orgID {
			return apperrors.NotFound("slot", id)
		}

		if req.Date != nil {
			slot.Date = *req.Date
		}
		if req.Time != nil {
			slot.Time = validation.NormalizeClockTime(*req.Time)
		}
		if req.TotalSeats != nil {
			if *req.TotalSeats < slot.ReservedSeats {
				return apperrors.Invalid("total_seats",
					fmt.Sprintf("cannot be lower than the %d seats already reserved", slot.ReservedSeats))
			}
			slot.TotalSeats = *req.TotalSeats
		}
		if req.DefaultPickupPoint != nil {
			slot.DefaultPickupPoint = validation.Trimmed(req.DefaultPickupPoint)
		}
		return s.slots.Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, sess, id)
}

// Delete removes the slot; its reservations go with it
func (s *SlotService) Delete(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	slot, err := s.Get(ctx, sess, id)
	if err != nil {
		return err
	}

	deleted, err := s.slots.Delete(ctx, slot.OrganizationID, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("slot", id)
	}

	publish(ctx, s.publisher, models.EventSlotDeleted, slotEvent(&slot.Slot), "slot_id", id)
	return nil
}

// Schedule splits the org's slots into upcoming and past around today
func (s *SlotService) Schedule(ctx context.Context, sess *session.Session, f models.SlotFilter) (upcoming, past []models.SlotWithActivity, err error) {
	slots, err := s.List(ctx, sess, f)
	if err != nil {
		return nil, nil, err
	}
	upcoming, past = query.SplitSlots(slots, s.clock.today())
	return upcoming, past, nil
}

func slotEvent(slot *models.Slot) models.SlotEvent {
	return models.SlotEvent{
		SlotID:         slot.ID,
		OrganizationID: slot.OrganizationID,
		ActivityID:     slot.ActivityID,
		Date:           slot.Date,
		Time:           slot.Time,
		Timestamp:      time.Now(),
	}
}
