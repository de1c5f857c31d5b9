package service

import (
	"context"
	"fmt"
	"strings"

	"tourdesk/internal/auth"
	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
)

var errEmailTaken = apperrors.Invalid("email", "is already registered")

type AuthService struct {
	profiles ProfileStore
	orgs     OrganizationStore
	tokens   TokenIssuer
	cache    Cache
}

func NewAuthService(profiles ProfileStore, orgs OrganizationStore, tokens TokenIssuer, cache Cache) *AuthService {
	return &AuthService{profiles: profiles, orgs: orgs, tokens: tokens, cache: cache}
}

// SignUp creates a staff profile without an organization
func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.TokenResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	p := &models.Profile{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
	}
	created, err := s.profiles.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if !created {
		return nil, errEmailTaken
	}

	logger.WithContext(ctx).Info("Profile created", "user_id", p.ID)
	return s.issue(p, nil)
}

// SignIn checks credentials. Unknown email and wrong password fail the same way.
func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*models.TokenResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p == nil || !auth.CheckPassword(p.PasswordHash, req.Password) {
		return nil, apperrors.ErrUnauthorized
	}

	var roles []models.Role
	if p.OrganizationID != nil {
		roles, err = s.profiles.Roles(ctx, p.ID, *p.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get roles: %w", err)
		}
	}
	return s.issue(p, roles)
}

func (s *AuthService) issue(p *models.Profile, roles []models.Role) (*models.TokenResponse, error) {
	token, err := s.tokens.Generate(p.ID, p.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return &models.TokenResponse{Token: token, Profile: *p, Roles: roles}, nil
}

// Session resolves the organization and roles of an authenticated user.
// The principal is cached; membership changes invalidate it.
func (s *AuthService) Session(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	if s.cache != nil {
		if p, ok := s.cache.GetPrincipal(ctx, userID); ok {
			return session.New(p.UserID, p.OrganizationID, p.Roles...), nil
		}
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrUnauthorized
	}

	principal := &models.Principal{
		UserID:         profile.ID,
		Email:          profile.Email,
		OrganizationID: profile.OrganizationID,
	}
	if profile.OrganizationID != nil {
		principal.Roles, err = s.profiles.Roles(ctx, profile.ID, *profile.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get roles: %w", err)
		}
	}

	if s.cache != nil {
		s.cache.SetPrincipal(ctx, principal)
	}
	return session.New(principal.UserID, principal.OrganizationID, principal.Roles...), nil
}

// Me describes the caller: profile, roles and organization
func (s *AuthService) Me(ctx context.Context, sess *session.Session) (*models.MeResponse, error) {
	if !sess.Authenticated() {
		return nil, apperrors.ErrUnauthorized
	}

	profile, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrUnauthorized
	}

	resp := &models.MeResponse{Profile: *profile, Roles: sess.Roles}
	if resp.Roles == nil {
		resp.Roles = []models.Role{}
	}
	if sess.OrganizationID != nil {
		resp.Organization, err = s.orgs.GetByID(ctx, *sess.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get organization: %w", err)
		}
	}
	return resp, nil
}

// UpdateProfile renames the caller. The cached principal is dropped with it.
func (s *AuthService) UpdateProfile(ctx context.Context, sess *session.Session, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if !sess.Authenticated() {
		return nil, apperrors.ErrUnauthorized
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, apperrors.ErrUnauthorized
	}

	profile.FullName = req.FullName
	found, err := s.profiles.UpdateFullName(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if !found {
		return nil, apperrors.ErrUnauthorized
	}

	if s.cache != nil {
		s.cache.InvalidatePrincipal(ctx, sess.UserID)
	}
	logger.WithContext(ctx).Info("Profile updated", "user_id", sess.UserID)
	return profile, nil
}
