package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourdesk/internal/availability"
	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/metrics"
	"tourdesk/internal/models"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	sourceStaff  = "staff"
	sourceWidget = "widget"
)

// LedgerService keeps reservations and slot.reserved_seats consistent. Every
// mutation locks the slot row, checks capacity, writes the reservation and the
// new seat count, and commits, all in one transaction.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
	now       func() time.Time
}

func NewLedgerService(store LedgerStore, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, now: time.Now}
}

// ReservationInput is the validated form of a new reservation
type ReservationInput struct {
	SlotID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	PeopleCount   int
	AmountPaid    decimal.Decimal
	PaymentMode   models.PaymentType
	PickupPoint   *string
	Status        models.ReservationStatus
}

func (in *ReservationInput) normalize() error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.PickupPoint = validation.Trimmed(in.PickupPoint)
	if in.PaymentMode == "" {
		in.PaymentMode = models.PaymentFull
	}
	if in.Status == "" {
		in.Status = models.StatusConfirmed
	}

	v := apperrors.NewValidationError()
	if in.SlotID == uuid.Nil {
		v.Add("slot_id", "is required")
	}
	if in.CustomerName == "" {
		v.Add("customer_name", "is required")
	}
	if in.CustomerEmail == "" {
		v.Add("customer_email", "is required")
	}
	if in.PeopleCount < 1 {
		v.Add("people_count", "must be at least 1")
	}
	if in.AmountPaid.IsNegative() {
		v.Add("amount_paid", "must not be negative")
	}
	if !in.PaymentMode.Valid() {
		v.Add("payment_mode", "must be one of: full, deposit, on_site")
	}
	if !in.Status.Valid() {
		v.Add("status", "must be one of: confirmed, pending, cancelled")
	}
	return v.OrNil()
}

// CreateReservation books a staff reservation in the caller's organization
func (s *LedgerService) CreateReservation(ctx context.Context, sess *session.Session, req *models.CreateReservationRequest) (*models.Reservation, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		metrics.Reservations.WithLabelValues(sourceStaff, metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	in := ReservationInput{
		SlotID:        req.SlotID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PeopleCount:   req.PeopleCount,
		AmountPaid:    req.AmountPaid,
		PaymentMode:   req.PaymentMode,
		PickupPoint:   req.PickupPoint,
		Status:        req.Status,
	}
	return s.create(ctx, sourceStaff, &orgID, &sess.UserID, in)
}

// CreateWidgetReservation books from the public widget. The caller is not
// trusted: the organization comes from the slot, payment fields are fixed,
// and capacity is checked under the slot lock like any other booking.
func (s *LedgerService) CreateWidgetReservation(ctx context.Context, req *models.WidgetReservationRequest) (*models.Reservation, error) {
	if err := validation.Struct(req); err != nil {
		metrics.Reservations.WithLabelValues(sourceWidget, metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	in := ReservationInput{
		SlotID:        req.SlotID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PeopleCount:   req.PeopleCount,
		AmountPaid:    decimal.Zero,
		PaymentMode:   models.PaymentOnSite,
		PickupPoint:   req.PickupPoint,
		Status:        models.StatusPending,
	}
	return s.create(ctx, sourceWidget, nil, nil, in)
}

func (s *LedgerService) create(ctx context.Context, source string, orgID, actor *uuid.UUID, in ReservationInput) (*models.Reservation, error) {
	if err := in.normalize(); err != nil {
		metrics.Reservations.WithLabelValues(source, metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	var res *models.Reservation
	var reservedAfter int

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		slot, err := s.store.GetSlotForUpdate(ctx, in.SlotID)
		if err != nil {
			return err
		}
		if slot == nil || (orgID != nil && slot.OrganizationID != *orgID) {
			return apperrors.NotFound("slot", in.SlotID)
		}
		if source == sourceWidget && slot.Date < s.now().Format(dateLayout) {
			return apperrors.Invalid("slot_id", "this departure has already left")
		}

		r := &models.Reservation{
			OrganizationID: slot.OrganizationID,
			SlotID:         slot.ID,
			CustomerName:   in.CustomerName,
			CustomerEmail:  in.CustomerEmail,
			PeopleCount:    in.PeopleCount,
			AmountPaid:     in.AmountPaid,
			PaymentMode:    in.PaymentMode,
			PickupPoint:    in.PickupPoint,
			Status:         in.Status,
		}
		if r.PickupPoint == nil {
			r.PickupPoint = slot.DefaultPickupPoint
		}

		reservedAfter = slot.ReservedSeats
		if r.HoldsSeats() {
			if !availability.SlotHasCapacity(slot, r.PeopleCount) {
				return apperrors.CapacityExceeded(r.PeopleCount, availability.ForSlot(slot))
			}
			reservedAfter = slot.ReservedSeats + r.PeopleCount
			if err := s.store.SetReservedSeats(ctx, slot.ID, reservedAfter); err != nil {
				return err
			}
		}

		if err := s.store.InsertReservation(ctx, r); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		metrics.Reservations.WithLabelValues(source, outcomeOf(err)).Inc()
		return nil, err
	}

	metrics.Reservations.WithLabelValues(source, metrics.OutcomeCreated).Inc()
	logger.WithContext(ctx).Info("Reservation created",
		"reservation_id", res.ID, "slot_id", res.SlotID, "people_count", res.PeopleCount,
		"reserved_seats", reservedAfter, "source", source)

	subject := models.EventReservationCreated
	if source == sourceWidget {
		subject = models.EventWidgetReservationCreated
	}
	seatDelta := 0
	if res.HoldsSeats() {
		seatDelta = res.PeopleCount
	}
	publish(ctx, s.publisher, subject, s.event(res, seatDelta, reservedAfter, actor), "reservation_id", res.ID)

	return res, nil
}

// CancelReservation sets the reservation to cancelled and returns its seats.
// Cancelling an already cancelled reservation changes nothing.
func (s *LedgerService) CancelReservation(ctx context.Context, sess *session.Session, id uuid.UUID) (*models.Reservation, error) {
	cancelled := models.StatusCancelled
	return s.UpdateReservation(ctx, sess, id, &models.UpdateReservationRequest{Status: &cancelled})
}

// UpdateReservation applies a partial patch. When the patch changes how many
// seats the reservation holds (people_count, or a status move into or out of
// cancelled) the slot's reserved_seats moves by the same delta in the same
// transaction. Growth is capacity checked; shrinkage is floored at zero.
func (s *LedgerService) UpdateReservation(ctx context.Context, sess *session.Session, id uuid.UUID, patch *models.UpdateReservationRequest) (*models.Reservation, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	if patch.AmountPaid != nil && patch.AmountPaid.IsNegative() {
		return nil, apperrors.Invalid("amount_paid", "must not be negative")
	}

	var res *models.Reservation
	var delta, reservedAfter int
	var changed bool

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		// slot first, then reservation: the same lock order as create
		current, err := s.store.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if current == nil || current.OrganizationID != orgID {
			return apperrors.NotFound("reservation", id)
		}

		slot, err := s.store.GetSlotForUpdate(ctx, current.SlotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return apperrors.NotFound("slot", current.SlotID)
		}

		r, err := s.store.GetReservationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return apperrors.NotFound("reservation", id)
		}

		before := heldSeats(r)
		next := *r
		if err := applyPatch(&next, patch); err != nil {
			return err
		}
		if sameReservation(&next, r) {
			res = r
			reservedAfter = slot.ReservedSeats
			return nil
		}

		delta = heldSeats(&next) - before
		reservedAfter = slot.ReservedSeats
		if delta > 0 {
			if !availability.SlotHasCapacity(slot, delta) {
				return apperrors.CapacityExceeded(delta, availability.ForSlot(slot))
			}
			reservedAfter = slot.ReservedSeats + delta
		} else if delta < 0 {
			reservedAfter = max(0, slot.ReservedSeats+delta)
		}
		if reservedAfter != slot.ReservedSeats {
			if err := s.store.SetReservedSeats(ctx, slot.ID, reservedAfter); err != nil {
				return err
			}
		}

		if err := s.store.UpdateReservation(ctx, &next); err != nil {
			return err
		}
		res = &next
		changed = true
		if r.Status != models.StatusCancelled && next.Status == models.StatusCancelled {
			metrics.ReservationsCancelled.Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return res, nil
	}

	logger.WithContext(ctx).Info("Reservation updated",
		"reservation_id", res.ID, "status", res.Status, "seat_delta", delta, "reserved_seats", reservedAfter)

	subject := models.EventReservationUpdated
	if res.Status == models.StatusCancelled && delta < 0 {
		subject = models.EventReservationCancelled
	}
	publish(ctx, s.publisher, subject, s.event(res, delta, reservedAfter, &sess.UserID), "reservation_id", res.ID)

	return res, nil
}

// ReconcileSlot recomputes reserved_seats from the slot's reservations under
// the slot lock. With fix unset it only reports the drift.
func (s *LedgerService) ReconcileSlot(ctx context.Context, slotID uuid.UUID, fix bool) (*models.SeatDrift, error) {
	var drift *models.SeatDrift
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		slot, err := s.store.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return apperrors.NotFound("slot", slotID)
		}

		held, err := s.store.HeldSeats(ctx, slotID)
		if err != nil {
			return err
		}
		if held == slot.ReservedSeats {
			return nil
		}

		drift = &models.SeatDrift{
			SlotID:         slot.ID,
			OrganizationID: slot.OrganizationID,
			TotalSeats:     slot.TotalSeats,
			Stored:         slot.ReservedSeats,
			Actual:         held,
		}
		if !fix {
			return nil
		}
		if held > slot.TotalSeats {
			return fmt.Errorf("slot %s is overbooked: %d seats held of %d", slot.ID, held, slot.TotalSeats)
		}
		return s.store.SetReservedSeats(ctx, slot.ID, held)
	})
	if err != nil {
		return nil, err
	}

	if drift != nil && fix {
		publish(ctx, s.publisher, models.EventSeatsReconciled, models.SeatsReconciledEvent{
			SlotID:         drift.SlotID,
			OrganizationID: drift.OrganizationID,
			Stored:         drift.Stored,
			Actual:         drift.Actual,
			Timestamp:      s.now(),
		}, "slot_id", drift.SlotID)
	}
	return drift, nil
}

func (s *LedgerService) event(r *models.Reservation, delta, reserved int, actor *uuid.UUID) models.ReservationEvent {
	return models.ReservationEvent{
		ReservationID:  r.ID,
		OrganizationID: r.OrganizationID,
		SlotID:         r.SlotID,
		PeopleCount:    r.PeopleCount,
		Status:         r.Status,
		SeatDelta:      delta,
		ReservedSeats:  reserved,
		ActorID:        actor,
		Timestamp:      s.now(),
	}
}

func heldSeats(r *models.Reservation) int {
	if r.HoldsSeats() {
		return r.PeopleCount
	}
	return 0
}

func applyPatch(r *models.Reservation, p *models.UpdateReservationRequest) error {
	v := apperrors.NewValidationError()
	if p.CustomerName != nil {
		if name := strings.TrimSpace(*p.CustomerName); name == "" {
			v.Add("customer_name", "is required")
		} else {
			r.CustomerName = name
		}
	}
	if p.CustomerEmail != nil {
		if email := strings.TrimSpace(*p.CustomerEmail); email == "" {
			v.Add("customer_email", "is required")
		} else {
			r.CustomerEmail = email
		}
	}
	if p.PeopleCount != nil {
		if *p.PeopleCount < 1 {
			v.Add("people_count", "must be at least 1")
		} else {
			r.PeopleCount = *p.PeopleCount
		}
	}
	if p.AmountPaid != nil {
		r.AmountPaid = *p.AmountPaid
	}
	if p.PaymentMode != nil {
		r.PaymentMode = *p.PaymentMode
	}
	if p.PickupPoint != nil {
		r.PickupPoint = validation.Trimmed(p.PickupPoint)
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	return v.OrNil()
}

func sameReservation(a, b *models.Reservation) bool {
	return a.CustomerName == b.CustomerName &&
		a.CustomerEmail == b.CustomerEmail &&
		a.PeopleCount == b.PeopleCount &&
		a.AmountPaid.Equal(b.AmountPaid) &&
		a.PaymentMode == b.PaymentMode &&
		samePickup(a.PickupPoint, b.PickupPoint) &&
		a.Status == b.Status
}

func samePickup(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func isCapacity(err error) bool {
	return errors.Is(err, apperrors.ErrCapacityExceeded)
}

func outcomeOf(err error) string {
	switch {
	case apperrors.IsValidation(err):
		return metrics.OutcomeInvalid
	case isCapacity(err):
		return metrics.OutcomeCapacity
	}
	return metrics.OutcomeFailed
}
