package repository

import (
	"context"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

type OrganizationRepository struct {
	db *database.DB
}

func NewOrganizationRepository(db *database.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

func (r *OrganizationRepository) Create(ctx context.Context, o *models.Organization) error {
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`INSERT INTO organizations (name) VALUES ($1) RETURNING id, created_at`, o.Name,
	).Scan(&o.ID, &o.CreatedAt)
	return database.Classify("create organization", err)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	o := &models.Organization{}
	err := r.db.Read(ctx, "get organization", func(ctx context.Context, q database.Querier) error {
		return q.QueryRowContext(ctx,
			`SELECT id, name, created_at FROM organizations WHERE id = $1`, id,
		).Scan(&o.ID, &o.Name, &o.CreatedAt)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
