package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"
)

var errAlreadyMember = apperrors.Invalid("organization_id", "user already belongs to an organization")

type OrganizationService struct {
	orgs     OrganizationStore
	profiles ProfileStore
	cache    Cache
}

func NewOrganizationService(orgs OrganizationStore, profiles ProfileStore, cache Cache) *OrganizationService {
	return &OrganizationService{orgs: orgs, profiles: profiles, cache: cache}
}

// Create registers a new tenant and makes the caller its admin
func (s *OrganizationService) Create(ctx context.Context, sess *session.Session, req *models.CreateOrganizationRequest) (*models.Organization, error) {
	if !sess.Authenticated() {
		return nil, apperrors.ErrUnauthorized
	}
	if sess.OrganizationID != nil {
		return nil, errAlreadyMember
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	org := &models.Organization{Name: strings.TrimSpace(req.Name)}
	err := s.orgs.WithTx(ctx, func(ctx context.Context) error {
		if err := s.orgs.Create(ctx, org); err != nil {
			return err
		}
		return s.attach(ctx, sess, org, models.RoleAdmin)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.invalidate(ctx, sess)
	logger.WithContext(ctx).Info("Organization created", "organization_id", org.ID)
	return org, nil
}

// Join attaches the caller to an existing organization as staff
func (s *OrganizationService) Join(ctx context.Context, sess *session.Session, req *models.JoinOrganizationRequest) (*models.Organization, error) {
	if !sess.Authenticated() {
		return nil, apperrors.ErrUnauthorized
	}
	if sess.OrganizationID != nil {
		return nil, errAlreadyMember
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var org *models.Organization
	err := s.orgs.WithTx(ctx, func(ctx context.Context) error {
		var err error
		org, err = s.orgs.GetByID(ctx, req.OrganizationID)
		if err != nil {
			return err
		}
		if org == nil {
			return apperrors.NotFound("organization", req.OrganizationID)
		}
		return s.attach(ctx, sess, org, models.RoleStaff)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sess)
	logger.WithContext(ctx).Info("Joined organization", "organization_id", org.ID)
	return org, nil
}

func (s *OrganizationService) attach(ctx context.Context, sess *session.Session, org *models.Organization, role models.Role) error {
	if err := s.profiles.SetOrganization(ctx, sess.UserID, &org.ID); err != nil {
		return err
	}
	return s.profiles.AddRole(ctx, sess.UserID, org.ID, role)
}

func (s *OrganizationService) invalidate(ctx context.Context, sess *session.Session) {
	if s.cache != nil {
		s.cache.InvalidatePrincipal(ctx, sess.UserID)
	}
}
