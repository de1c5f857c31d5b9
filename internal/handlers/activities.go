package handlers

import (
	"net/http"

	"tourdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateActivity - POST /api/activities
func (h *Handlers) CreateActivity(c *gin.Context) {
	var req models.CreateActivityRequest
	if !bindJSON(c, &req) {
		return
	}

	activity, err := h.services.Activities.Create(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "create activity")
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// ListActivities - GET /api/activities?q=&page=&pageSize=
func (h *Handlers) ListActivities(c *gin.Context) {
	var req models.ListActivitiesRequest
	if !bindQuery(c, &req) {
		return
	}

	activities, err := h.services.Activities.List(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "list activities")
		return
	}
	c.JSON(http.StatusOK, activities)
}

// GetActivity - GET /api/activities/:id
func (h *Handlers) GetActivity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	activity, err := h.services.Activities.Get(c.Request.Context(), sess(c), id)
	if err != nil {
		handleServiceError(c, err, "get activity")
		return
	}
	c.JSON(http.StatusOK, activity)
}

// UpdateActivity - PUT /api/activities/:id
func (h *Handlers) UpdateActivity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateActivityRequest
	if !bindJSON(c, &req) {
		return
	}

	activity, err := h.services.Activities.Update(c.Request.Context(), sess(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "update activity")
		return
	}
	c.JSON(http.StatusOK, activity)
}

// DeleteActivity - DELETE /api/activities/:id
// Удаляет экскурсию вместе с ее слотами и бронированиями
func (h *Handlers) DeleteActivity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Activities.Delete(c.Request.Context(), sess(c), id); err != nil {
		handleServiceError(c, err, "delete activity")
		return
	}
	c.Status(http.StatusNoContent)
}
