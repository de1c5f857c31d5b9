package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

type SlotRepository struct {
	db *database.DB
}

func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// date and time come back as text so no driver time zone handling touches them
const slotColumns = `s.id, s.organization_id, s.activity_id, to_char(s.date, 'YYYY-MM-DD'), to_char(s.time, 'HH24:MI'),
	s.total_seats, s.reserved_seats, s.default_pickup_point, s.created_at`

const slotWithActivityColumns = slotColumns + `,
	a.id, a.organization_id, a.name, a.description, a.capacity, a.price, a.payment_type, a.created_at, a.updated_at`

func scanSlot(row interface{ Scan(...any) error }, s *models.Slot) error {
	return row.Scan(
		&s.ID,
		&s.OrganizationID,
		&s.ActivityID,
		&s.Date,
		&s.Time,
		&s.TotalSeats,
		&s.ReservedSeats,
		&s.DefaultPickupPoint,
		&s.CreatedAt,
	)
}

func scanSlotWithActivity(row interface{ Scan(...any) error }, s *models.SlotWithActivity) error {
	a := &models.Activity{}
	err := row.Scan(
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
	s.Activity = a
	return nil
}

func (r *SlotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

func (r *SlotRepository) Create(ctx context.Context, s *models.Slot) error {
	query := `
		INSERT INTO slots (organization_id, activity_id, date, time, total_seats, reserved_seats, default_pickup_point)
		VALUES ($1, $2, $3::date, $4::time, $5, 0, $6)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		s.OrganizationID, s.ActivityID, s.Date, s.Time, s.TotalSeats, s.DefaultPickupPoint,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return database.Classify("create slot", err)
	}
	s.ReservedSeats = 0
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.SlotWithActivity, error) {
	query := `
		SELECT ` + slotWithActivityColumns + `
		FROM slots s
		JOIN activities a ON a.id = s.activity_id
		WHERE s.id = $1 AND s.organization_id = $2`

	s := &models.SlotWithActivity{}
	err := r.db.Read(ctx, "get slot", func(ctx context.Context, q database.Querier) error {
		return scanSlotWithActivity(q.QueryRowContext(ctx, query, id, orgID), s)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetForUpdate locks the slot row until the surrounding transaction ends
func (r *SlotRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return getSlotForUpdate(ctx, r.db, id)
}

func getSlotForUpdate(ctx context.Context, db *database.DB, id uuid.UUID) (*models.Slot, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("slot lock requested outside a transaction")
	}
	query := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1 FOR UPDATE`

	s := &models.Slot{}
	err := scanSlot(db.Conn(ctx).QueryRowContext(ctx, query, id), s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("lock slot", err)
	}
	return s, nil
}

// List returns the org's slots joined with their activity, ordered by (date, time)
func (r *SlotRepository) List(ctx context.Context, orgID uuid.UUID, f models.SlotFilter) ([]models.SlotWithActivity, error) {
	query := `
		SELECT ` + slotWithActivityColumns + `
		FROM slots s
		JOIN activities a ON a.id = s.activity_id
		WHERE s.organization_id = $1`
	args := []any{orgID}
	argIndex := 2

	if f.ActivityID != nil {
		query += fmt.Sprintf(" AND s.activity_id = $%d", argIndex)
		args = append(args, *f.ActivityID)
		argIndex++
	}
	if f.From != "" {
		query += fmt.Sprintf(" AND s.date >= $%d::date", argIndex)
		args = append(args, f.From)
		argIndex++
	}
	if f.To != "" {
		query += fmt.Sprintf(" AND s.date <= $%d::date", argIndex)
		args = append(args, f.To)
	}
	query += " ORDER BY s.date, s.time"

	var slots []models.SlotWithActivity
	err := r.db.Read(ctx, "list slots", func(ctx context.Context, q database.Querier) error {
		slots = []models.SlotWithActivity{}
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s models.SlotWithActivity
			if err := scanSlotWithActivity(rows, &s); err != nil {
				return err
			}
			slots = append(slots, s)
		}
		return rows.Err()
	})
	return slots, err
}

// ListByActivity returns an activity's slots in [from, to] without tenant
// scoping; the widget reaches slots through a public activity id.
func (r *SlotRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, from, to string) ([]models.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		WHERE s.activity_id = $1 AND s.date >= $2::date AND s.date <= $3::date
		ORDER BY s.date, s.time`

	var slots []models.Slot
	err := r.db.Read(ctx, "list activity slots", func(ctx context.Context, q database.Querier) error {
		slots = []models.Slot{}
		rows, err := q.QueryContext(ctx, query, activityID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s models.Slot
			if err := scanSlot(rows, &s); err != nil {
				return err
			}
			slots = append(slots, s)
		}
		return rows.Err()
	})
	return slots, err
}

// Update writes the editable fields. reserved_seats is owned by the ledger and
// is never written here.
func (r *SlotRepository) Update(ctx context.Context, s *models.Slot) error {
	query := `
		UPDATE slots
		SET date = $1::date, time = $2::time, total_seats = $3, default_pickup_point = $4
		WHERE id = $5 AND organization_id = $6`

	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		s.Date, s.Time, s.TotalSeats, s.DefaultPickupPoint, s.ID, s.OrganizationID)
	return database.Classify("update slot", err)
}

// Delete removes the slot and, by cascade, its reservations
func (r *SlotRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM slots WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return false, database.Classify("delete slot", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SlotRepository) CountUpcoming(ctx context.Context, orgID uuid.UUID, today string) (int, error) {
	var n int
	err := r.db.Read(ctx, "count upcoming slots", func(ctx context.Context, q database.Querier) error {
		return q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM slots WHERE organization_id = $1 AND date >= $2::date`, orgID, today,
		).Scan(&n)
	})
	return n, err
}

// FindSeatDrift lists slots whose reserved_seats differs from the seats held by
// their non-cancelled reservations.
func (r *SlotRepository) FindSeatDrift(ctx context.Context) ([]models.SeatDrift, error) {
	query := `
		SELECT s.id, s.organization_id, s.total_seats, s.reserved_seats,
		       COALESCE(SUM(res.people_count) FILTER (WHERE res.status <> 'cancelled'), 0) AS actual
		FROM slots s
		LEFT JOIN reservations res ON res.slot_id = s.id
		GROUP BY s.id
		HAVING s.reserved_seats <> COALESCE(SUM(res.people_count) FILTER (WHERE res.status <> 'cancelled'), 0)
		ORDER BY s.date, s.time`

	var drifts []models.SeatDrift
	err := r.db.Read(ctx, "find seat drift", func(ctx context.Context, q database.Querier) error {
		drifts = []models.SeatDrift{}
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d models.SeatDrift
			if err := rows.Scan(&d.SlotID, &d.OrganizationID, &d.TotalSeats, &d.Stored, &d.Actual); err != nil {
				return err
			}
			drifts = append(drifts, d)
		}
		return rows.Err()
	})
	return drifts, err
}
