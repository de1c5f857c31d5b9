package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ActivityService struct {
	activities ActivityStore
	index      ActivityIndex
	cache      Cache
	publisher  EventPublisher
}

func NewActivityService(activities ActivityStore, index ActivityIndex, cache Cache, publisher EventPublisher) *ActivityService {
	return &ActivityService{activities: activities, index: index, cache: cache, publisher: publisher}
}

func (s *ActivityService) Create(ctx context.Context, sess *session.Session, req *models.CreateActivityRequest) (*models.Activity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperrors.Invalid("price", "must not be negative")
	}

	a := &models.Activity{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(req.Name),
		Description:    validation.Trimmed(req.Description),
		Capacity:       req.Capacity,
		Price:          req.Price,
		PaymentType:    req.PaymentType,
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.reindex(ctx, a)
	logger.WithContext(ctx).Info("Activity created", "activity_id", a.ID)
	return a, nil
}

func (s *ActivityService) Get(ctx context.Context, sess *session.Session, id uuid.UUID) (*models.Activity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}

	a, err := s.activities.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if a == nil {
		return nil, apperrors.NotFound("activity", id)
	}
	return a, nil
}

// List returns the org's activities. With a query it searches the index when
// one is configured and falls back to SQL matching when the index fails.
func (s *ActivityService) List(ctx context.Context, sess *session.Session, req *models.ListActivitiesRequest) ([]models.Activity, error) {
	orgID, err := sess.Organization()
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Query)
	if text == "" && req.Page == 0 {
		activities, err := s.activities.List(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to list activities: %w", err)
		}
		return activities, nil
	}

	page, size := paging(req.Page, req.PageSize)

	if s.index != nil && text != "" {
		activities, err := s.searchIndex(ctx, orgID, text, page, size)
		if err == nil {
			return activities, nil
		}
		logger.WithContext(ctx).Warn("Search index unavailable, falling back to SQL", "error", err)
	}

	activities, err := s.activities.Search(ctx, orgID, text, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	return activities, nil
}

func (s *ActivityService) searchIndex(ctx context.Context, orgID uuid.UUID, text string, page, size int) ([]models.Activity, error) {
	ids, err := s.index.SearchActivities(ctx, orgID, text, page, size)
	if err != nil {
		return nil, err
	}

	found, err := s.activities.ListByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}

	// keep the index's relevance order; ids deleted since indexing drop out
	byID := make(map[uuid.UUID]models.Activity, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	out := make([]models.Activity, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ActivityService) Update(ctx context.Context, sess *session.Session, id uuid.UUID, req *models.UpdateActivityRequest) (*models.Activity, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Invalid("name", "is required")
		}
		a.Name = name
	}
	if req.Description != nil {
		a.Description = validation.Trimmed(req.Description)
	}
	if req.Capacity != nil {
		a.Capacity = *req.Capacity
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperrors.Invalid("price", "must not be negative")
		}
		a.Price = *req.Price
	}
	if req.PaymentType != nil {
		a.PaymentType = *req.PaymentType
	}

	if err := s.activities.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateActivity(ctx, a.ID)
	}
	s.reindex(ctx, a)
	return a, nil
}

// Delete removes the activity together with its slots and reservations
func (s *ActivityService) Delete(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	orgID, err := sess.Organization()
	if err != nil {
		return err
	}

	deleted, err := s.activities.Delete(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if !deleted {
		return apperrors.NotFound("activity", id)
	}

	if s.cache != nil {
		s.cache.InvalidateActivity(ctx, id)
	}
	if s.index != nil {
		if err := s.index.DeleteActivity(ctx, id); err != nil {
			logger.WithContext(ctx).Warn("Failed to remove activity from index", "activity_id", id, "error", err)
		}
	}

	publish(ctx, s.publisher, models.EventActivityDeleted, models.ActivityDeletedEvent{
		ActivityID:     id,
		OrganizationID: orgID,
		Timestamp:      time.Now(),
	}, "activity_id", id)
	return nil
}

// Reindex pushes every activity into the search index
func (s *ActivityService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("search index is not configured")
	}

	all, err := s.activities.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list activities: %w", err)
	}
	for i := range all {
		if err := s.index.IndexActivity(ctx, &all[i]); err != nil {
			return i, fmt.Errorf("failed to index activity %s: %w", all[i].ID, err)
		}
	}
	return len(all), nil
}

func (s *ActivityService) reindex(ctx context.Context, a *models.Activity) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexActivity(ctx, a); err != nil {
		logger.WithContext(ctx).Warn("Failed to index activity", "activity_id", a.ID, "error", err)
	}
}

func paging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
