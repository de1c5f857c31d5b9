package service

import (
	"context"
	"fmt"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/session"

	"github.com/google/uuid"
)

type TeamService struct {
	profiles ProfileStore
	cache    Cache
}

func NewTeamService(profiles ProfileStore, cache Cache) *TeamService {
	return &TeamService{profiles: profiles, cache: cache}
}

func (s *TeamService) ListMembers(ctx context.Context, sess *session.Session) ([]models.Member, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}

	members, err := s.profiles.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// RemoveMember detaches a user from the caller's organization. Admins only;
// an admin cannot remove themselves.
func (s *TeamService) RemoveMember(ctx context.Context, sess *session.Session, userID uuid.UUID) error {
	orgID, err := sess.RequireRole(models.RoleAdmin)
	if err != nil {
		return err
	}
	if userID == sess.UserID {
		return apperrors.Invalid("user_id", "cannot remove yourself")
	}

	removed, err := s.profiles.RemoveFromOrganization(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if !removed {
		return apperrors.NotFound("member", userID)
	}

	if s.cache != nil {
		s.cache.InvalidatePrincipal(ctx, userID)
	}
	logger.WithContext(ctx).Info("Member removed", "member_id", userID)
	return nil
}
