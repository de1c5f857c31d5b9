package repository

import (
	"context"
	"fmt"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

// ReservationRepository serves the read side of reservations
type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationWithSlotColumns = reservationColumns + `,
	` + slotWithActivityColumns

const reservationJoins = `
	FROM reservations r
	JOIN slots s ON s.id = r.slot_id
	JOIN activities a ON a.id = s.activity_id`

func scanReservationWithSlot(row interface{ Scan(...any) error }, r *models.ReservationWithSlot) error {
	s := &models.SlotWithActivity{Activity: &models.Activity{}}
	a := s.Activity
	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.SlotID,
		&r.CustomerName,
		&r.CustomerEmail,
		&r.PeopleCount,
		&r.AmountPaid,
		&r.PaymentMode,
		&r.PickupPoint,
		&r.Status,
		&r.CreatedAt,
		&s.ID,
		&s.OrganizationID,
		&s.ActivityID,
		&s.Date,
		&s.Time,
		&s.TotalSeats,
		&s.ReservedSeats,
		&s.DefaultPickupPoint,
		&s.CreatedAt,
		&a.ID,
		&a.OrganizationID,
		&a.Name,
		&a.Description,
		&a.Capacity,
		&a.Price,
		&a.PaymentType,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	r.Slot = s
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.ReservationWithSlot, error) {
	query := `SELECT ` + reservationWithSlotColumns + reservationJoins + `
		WHERE r.id = $1 AND r.organization_id = $2`

	res := &models.ReservationWithSlot{}
	err := r.db.Read(ctx, "get reservation", func(ctx context.Context, q database.Querier) error {
		return scanReservationWithSlot(q.QueryRowContext(ctx, query, id, orgID), res)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// List returns the org's reservations with their slot, newest slot first.
// Filters are pushed down to SQL with the same semantics as query.FilterReservations.
func (r *ReservationRepository) List(ctx context.Context, orgID uuid.UUID, f models.ReservationFilter) ([]models.ReservationWithSlot, error) {
	query := `SELECT ` + reservationWithSlotColumns + reservationJoins + `
		WHERE r.organization_id = $1`
	args := []any{orgID}
	argIndex := 2

	if f.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", argIndex)
		args = append(args, f.Status)
		argIndex++
	}
	if f.Date != "" {
		query += fmt.Sprintf(" AND s.date = $%d::date", argIndex)
		args = append(args, f.Date)
		argIndex++
	}
	if f.ActivityID != nil {
		query += fmt.Sprintf(" AND s.activity_id = $%d", argIndex)
		args = append(args, *f.ActivityID)
	}
	query += " ORDER BY s.date DESC, s.time DESC, r.created_at DESC"

	var out []models.ReservationWithSlot
	err := r.db.Read(ctx, "list reservations", func(ctx context.Context, q database.Querier) error {
		out = []models.ReservationWithSlot{}
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var res models.ReservationWithSlot
			if err := scanReservationWithSlot(rows, &res); err != nil {
				return err
			}
			out = append(out, res)
		}
		return rows.Err()
	})
	return out, err
}

func (r *ReservationRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status models.ReservationStatus) (int, error) {
	var n int
	err := r.db.Read(ctx, "count reservations", func(ctx context.Context, q database.Querier) error {
		return q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM reservations WHERE organization_id = $1 AND status = $2`, orgID, status,
		).Scan(&n)
	})
	return n, err
}
