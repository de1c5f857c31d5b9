package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

// LedgerRepository holds the statements the seat ledger runs inside one
// transaction: lock the slot row, write the reservation, write reserved_seats.
type LedgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const reservationColumns = `r.id, r.organization_id, r.slot_id, r.customer_name, r.customer_email, r.people_count,
	r.amount_paid, r.payment_mode, r.pickup_point, r.status, r.created_at`

func scanReservation(row interface{ Scan(...any) error }, r *models.Reservation) error {
	return row.Scan(
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
	)
}

func (l *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return l.db.WithTx(ctx, fn)
}

func (l *LedgerRepository) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	return getSlotForUpdate(ctx, l.db, id)
}

func (l *LedgerRepository) SetReservedSeats(ctx context.Context, slotID uuid.UUID, reserved int) error {
	res, err := l.db.Conn(ctx).ExecContext(ctx,
		`UPDATE slots SET reserved_seats = $1 WHERE id = $2`, reserved, slotID)
	if err != nil {
		return database.Classify("update reserved seats", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update reserved seats: slot %s vanished", slotID)
	}
	return nil
}

func (l *LedgerRepository) GetReservation(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1`

	res := &models.Reservation{}
	err := l.db.Read(ctx, "get reservation", func(ctx context.Context, q database.Querier) error {
		return scanReservation(q.QueryRowContext(ctx, query, id), res)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (l *LedgerRepository) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("reservation lock requested outside a transaction")
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations r WHERE r.id = $1 FOR UPDATE`

	res := &models.Reservation{}
	err := scanReservation(l.db.Conn(ctx).QueryRowContext(ctx, query, id), res)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify("lock reservation", err)
	}
	return res, nil
}

func (l *LedgerRepository) InsertReservation(ctx context.Context, r *models.Reservation) error {
	query := `
		INSERT INTO reservations (organization_id, slot_id, customer_name, customer_email, people_count,
			amount_paid, payment_mode, pickup_point, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := l.db.Conn(ctx).QueryRowContext(ctx, query,
		r.OrganizationID, r.SlotID, r.CustomerName, r.CustomerEmail, r.PeopleCount,
		r.AmountPaid, r.PaymentMode, r.PickupPoint, r.Status,
	).Scan(&r.ID, &r.CreatedAt)
	return database.Classify("insert reservation", err)
}

func (l *LedgerRepository) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	query := `
		UPDATE reservations
		SET customer_name = $1, customer_email = $2, people_count = $3, amount_paid = $4,
		    payment_mode = $5, pickup_point = $6, status = $7
		WHERE id = $8`

	_, err := l.db.Conn(ctx).ExecContext(ctx, query,
		r.CustomerName, r.CustomerEmail, r.PeopleCount, r.AmountPaid,
		r.PaymentMode, r.PickupPoint, r.Status, r.ID)
	return database.Classify("update reservation", err)
}

// HeldSeats sums people_count over the slot's non-cancelled reservations
func (l *LedgerRepository) HeldSeats(ctx context.Context, slotID uuid.UUID) (int, error) {
	var n int
	err := l.db.Read(ctx, "sum held seats", func(ctx context.Context, q database.Querier) error {
		return q.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(people_count), 0)
			FROM reservations
			WHERE slot_id = $1 AND status <> 'cancelled'`, slotID).Scan(&n)
	})
	return n, err
}
