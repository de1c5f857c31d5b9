package handlers

import (
	"errors"
	"net/http"

	apperrors "tourdesk/internal/errors"
	"tourdesk/internal/logger"
	"tourdesk/internal/models"
	"tourdesk/internal/service"
	"tourdesk/internal/session"
	"tourdesk/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// sess возвращает сессию, положенную middleware.Auth
func sess(c *gin.Context) *session.Session {
	return session.FromContext(c.Request.Context())
}

// bindJSON разбирает тело запроса; при ошибке ответ уже отправлен
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	if errors.As(validation.Translate(err), &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// pathID разбирает uuid из параметра маршрута
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a valid id"})
		return uuid.Nil, false
	}
	return id, true
}

// queryID разбирает необязательный uuid из query-параметра
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": gin.H{name: "must be a valid id"}})
		return nil, false
	}
	return &id, true
}

// handleServiceError переводит ошибки сервисов в HTTP-ответы
func handleServiceError(c *gin.Context, err error, action string) {
	var verr *apperrors.ValidationError
	var capErr *apperrors.CapacityError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     capErr.Error(),
			"available": capErr.Available,
		})
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		// нарушение ограничения slots_reserved_seats_check в базе
		c.JSON(http.StatusConflict, gin.H{"error": apperrors.ErrCapacityExceeded.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case apperrors.IsTransient(err):
		logger.WithContext(c.Request.Context()).Warn("Store temporarily unavailable", "action", action, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, please retry"})
	default:
		logger.WithContext(c.Request.Context()).Error("Failed to "+action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
	_ = c.Error(err)
}

// Auth handlers

// SignUp - POST /api/auth/signup
func (h *Handlers) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Auth.SignUp(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "sign up")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SignIn - POST /api/auth/signin
func (h *Handlers) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Auth.SignIn(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "sign in")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me - GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	resp, err := h.services.Auth.Me(c.Request.Context(), sess(c))
	if err != nil {
		handleServiceError(c, err, "load session")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateMe - PATCH /api/auth/me
// Меняет имя текущего пользователя
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.services.Auth.UpdateProfile(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Organization handlers

// CreateOrganization - POST /api/organizations
// Создает организацию, вызывающий становится администратором
func (h *Handlers) CreateOrganization(c *gin.Context) {
	var req models.CreateOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.services.Organizations.Create(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "create organization")
		return
	}
	c.JSON(http.StatusCreated, org)
}

// JoinOrganization - POST /api/organizations/join
func (h *Handlers) JoinOrganization(c *gin.Context) {
	var req models.JoinOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.services.Organizations.Join(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "join organization")
		return
	}
	c.JSON(http.StatusOK, org)
}

// Team handlers

// ListTeam - GET /api/team
func (h *Handlers) ListTeam(c *gin.Context) {
	members, err := h.services.Team.ListMembers(c.Request.Context(), sess(c))
	if err != nil {
		handleServiceError(c, err, "list team")
		return
	}
	c.JSON(http.StatusOK, members)
}

// RemoveTeamMember - DELETE /api/team/:id
func (h *Handlers) RemoveTeamMember(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Team.RemoveMember(c.Request.Context(), sess(c), userID); err != nil {
		handleServiceError(c, err, "remove team member")
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard - GET /api/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	stats, err := h.services.Dashboard.Stats(c.Request.Context(), sess(c))
	if err != nil {
		handleServiceError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Labels - GET /api/labels?locale=fr
// Таблица подписей для типов оплаты и статусов
func (h *Handlers) Labels(c *gin.Context) {
	c.JSON(http.StatusOK, models.Labels(models.Locale(c.DefaultQuery("locale", string(models.DefaultLocale)))))
}
