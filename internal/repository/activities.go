package repository

import (
	"context"
	"database/sql"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ActivityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, organization_id, name, description, capacity, price, payment_type, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }, a *models.Activity) error {
	return row.Scan(
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
}

func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (organization_id, name, description, capacity, price, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		a.OrganizationID, a.Name, a.Description, a.Capacity, a.Price, a.PaymentType,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return database.Classify("create activity", err)
}

func (r *ActivityRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1 AND organization_id = $2`
	return r.getOne(ctx, "get activity", query, id, orgID)
}

// GetPublic loads an activity without tenant scoping, for the public widget
func (r *ActivityRepository) GetPublic(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	return r.getOne(ctx, "get public activity", query, id)
}

func (r *ActivityRepository) getOne(ctx context.Context, op, query string, args ...any) (*models.Activity, error) {
	a := &models.Activity{}
	err := r.db.Read(ctx, op, func(ctx context.Context, q database.Querier) error {
		return scanActivity(q.QueryRowContext(ctx, query, args...), a)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ActivityRepository) List(ctx context.Context, orgID uuid.UUID) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE organization_id = $1 ORDER BY name, created_at`
	return r.list(ctx, "list activities", query, orgID)
}

// ListByIDs returns the org's activities with the given ids, in no particular order
func (r *ActivityRepository) ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]models.Activity, error) {
	if len(ids) == 0 {
		return []models.Activity{}, nil
	}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE organization_id = $1 AND id = ANY($2::uuid[])`
	return r.list(ctx, "list activities by id", query, orgID, pq.Array(uuidStrings(ids)))
}

// Search is the SQL fallback when no search index is configured
func (r *ActivityRepository) Search(ctx context.Context, orgID uuid.UUID, text string, limit, offset int) ([]models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE organization_id = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY name, created_at
		LIMIT $3 OFFSET $4`
	return r.list(ctx, "search activities", query, orgID, text, limit, offset)
}

// ListAll walks every tenant, used by the reindex command
func (r *ActivityRepository) ListAll(ctx context.Context) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY created_at`
	return r.list(ctx, "list all activities", query)
}

func (r *ActivityRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.Read(ctx, op, func(ctx context.Context, q database.Querier) error {
		activities = []models.Activity{}
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var a models.Activity
			if err := scanActivity(rows, &a); err != nil {
				return err
			}
			activities = append(activities, a)
		}
		return rows.Err()
	})
	return activities, err
}

func (r *ActivityRepository) Update(ctx context.Context, a *models.Activity) error {
	query := `
		UPDATE activities
		SET name = $1, description = $2, capacity = $3, price = $4, payment_type = $5, updated_at = NOW()
		WHERE id = $6 AND organization_id = $7
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		a.Name, a.Description, a.Capacity, a.Price, a.PaymentType, a.ID, a.OrganizationID,
	).Scan(&a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	return database.Classify("update activity", err)
}

// Delete removes the activity; its slots and reservations go with it by cascade
func (r *ActivityRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM activities WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return false, database.Classify("delete activity", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ActivityRepository) Count(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	err := r.db.Read(ctx, "count activities", func(ctx context.Context, q database.Querier) error {
		return q.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities WHERE organization_id = $1`, orgID).Scan(&n)
	})
	return n, err
}
