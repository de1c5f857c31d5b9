package repository

import (
	"context"

	"tourdesk/internal/database"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, full_name, password_hash, organization_id, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }, p *models.Profile) error {
	return row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.PasswordHash,
		&p.OrganizationID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.getOne(ctx, "get profile", `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getOne(ctx, "get profile by email", `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email)
}

func (r *ProfileRepository) getOne(ctx context.Context, op, query string, args ...any) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.Read(ctx, op, func(ctx context.Context, q database.Querier) error {
		return scanProfile(q.QueryRowContext(ctx, query, args...), p)
	})
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts the profile; a taken email yields (false, nil)
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query, p.Email, p.FullName, p.PasswordHash).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, database.Classify("create profile", err)
	}
	return true, nil
}

// UpdateFullName renames the profile; a missing profile yields (false, nil)
func (r *ProfileRepository) UpdateFullName(ctx context.Context, p *models.Profile) (bool, error) {
	err := r.db.Conn(ctx).QueryRowContext(ctx, `
		UPDATE profiles SET full_name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at`, p.FullName, p.ID).Scan(&p.UpdatedAt)
	if errorsIsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, database.Classify("update profile", err)
	}
	return true, nil
}

func (r *ProfileRepository) SetOrganization(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE profiles SET organization_id = $1 WHERE id = $2`, orgID, userID)
	return database.Classify("set profile organization", err)
}

func (r *ProfileRepository) AddRole(ctx context.Context, userID, orgID uuid.UUID, role models.Role) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `
		INSERT INTO user_roles (user_id, organization_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, userID, orgID, role)
	return database.Classify("add role", err)
}

func (r *ProfileRepository) Roles(ctx context.Context, userID, orgID uuid.UUID) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.Read(ctx, "list roles", func(ctx context.Context, q database.Querier) error {
		roles = []models.Role{}
		rows, err := q.QueryContext(ctx,
			`SELECT role FROM user_roles WHERE user_id = $1 AND organization_id = $2 ORDER BY role`, userID, orgID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role models.Role
			if err := rows.Scan(&role); err != nil {
				return err
			}
			roles = append(roles, role)
		}
		return rows.Err()
	})
	return roles, err
}

// ListMembers returns the org's profiles with their roles, ordered by name
func (r *ProfileRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT p.id, p.email, p.full_name, p.password_hash, p.organization_id, p.created_at, p.updated_at,
		       COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id AND ur.organization_id = p.organization_id
		WHERE p.organization_id = $1
		GROUP BY p.id
		ORDER BY p.full_name, p.email`

	var members []models.Member
	err := r.db.Read(ctx, "list members", func(ctx context.Context, q database.Querier) error {
		members = []models.Member{}
		rows, err := q.QueryContext(ctx, query, orgID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m models.Member
			var roles []string
			if err := rows.Scan(
				&m.ID, &m.Email, &m.FullName, &m.PasswordHash, &m.OrganizationID, &m.CreatedAt, &m.UpdatedAt,
				pq.Array(&roles),
			); err != nil {
				return err
			}
			m.Roles = make([]models.Role, len(roles))
			for i, role := range roles {
				m.Roles[i] = models.Role(role)
			}
			members = append(members, m)
		}
		return rows.Err()
	})
	return members, err
}

// RemoveFromOrganization detaches the user from the org and drops their roles there
func (r *ProfileRepository) RemoveFromOrganization(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var removed bool
	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		if _, err := r.db.Conn(ctx).ExecContext(ctx,
			`DELETE FROM user_roles WHERE user_id = $1 AND organization_id = $2`, userID, orgID); err != nil {
			return database.Classify("remove roles", err)
		}

		res, err := r.db.Conn(ctx).ExecContext(ctx,
			`UPDATE profiles SET organization_id = NULL WHERE id = $1 AND organization_id = $2`, userID, orgID)
		if err != nil {
			return database.Classify("detach profile", err)
		}
		n, err := res.RowsAffected()
		removed = n > 0
		return err
	})
	return removed, err
}

func (r *ProfileRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}
