// Package session carries the caller's identity into service calls.
package session

import (
	"context"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/models"

	"github.com/google/uuid"
)

// Session is built once per request and passed explicitly to every service
// operation that needs a tenant or a role.
type Session struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Roles          []models.Role
}

func New(userID uuid.UUID, orgID *uuid.UUID, roles ...models.Role) *Session {
	return &Session{UserID: userID, OrganizationID: orgID, Roles: roles}
}

func (s *Session) HasRole(role models.Role) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

// Organization returns the caller's tenant or an authorization error
func (s *Session) Organization() (uuid.UUID, error) {
	if s == nil || s.UserID == uuid.Nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	if s.OrganizationID == nil {
		return uuid.Nil, apperrors.ErrForbidden
	}
	return *s.OrganizationID, nil
}

// RequireRole returns the caller's tenant if the caller holds role in it
func (s *Session) RequireRole(role models.Role) (uuid.UUID, error) {
	orgID, err := s.Organization()
	if err != nil {
		return uuid.Nil, err
	}
	if !s.HasRole(role) {
		return uuid.Nil, apperrors.ErrForbidden
	}
	return orgID, nil
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != uuid.Nil
}

type ctxKey struct{}

// WithContext stores the session on ctx for middleware hand-off
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithContext, or nil
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
