package service

import (
	"context"
	"fmt"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"
	"tourdesk/internal/query"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
)

// ReservationService is the read side of reservations; all writes go through LedgerService
type ReservationService struct {
	reservations ReservationStore
	clock        Clock
}

func NewReservationService(reservations ReservationStore, clock Clock) *ReservationService {
	return &ReservationService{reservations: reservations, clock: clock}
}

func (s *ReservationService) List(ctx context.Context, sess *session.Session, f models.ReservationFilter) ([]models.ReservationWithSlot, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(f); err != nil {
		return nil, err
	}

	all, err := s.reservations.List(ctx, orgID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return query.FilterReservations(all, f), nil
}

// Partition splits the filtered reservations into upcoming and past around today
func (s *ReservationService) Partition(ctx context.Context, sess *session.Session, f models.ReservationFilter) (models.ReservationPartition, error) {
	all, err := s.List(ctx, sess, f)
	if err != nil {
		return models.ReservationPartition{}, err
	}
	return query.PartitionReservations(all, s.clock.today()), nil
}

func (s *ReservationService) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*models.ReservationWithSlot, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}

	r, err := s.reservations.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if r == nil {
		return nil, apperrors.NotFound("reservation", id)
	}
	return r, nil
}

// PendingCount feeds the pending badge in the back-office
func (s *ReservationService) PendingCount(ctx context.Context, sess *session.Session) (int, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return 0, err
	}

	n, err := s.reservations.CountByStatus(ctx, orgID, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending reservations: %w", err)
	}
	return n, nil
}
