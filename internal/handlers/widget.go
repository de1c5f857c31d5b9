package handlers

import (
	"net/http"

	"tourdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// Публичные обработчики виджета, без авторизации

// WidgetActivity - GET /api/widget/activities/:id
func (h *Handlers) WidgetActivity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	activity, err := h.services.Widget.GetActivity(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get activity")
		return
	}
	c.JSON(http.StatusOK, activity)
}

// WidgetSlots - GET /api/widget/activities/:id/slots?from=&to=
func (h *Handlers) WidgetSlots(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.WidgetSlotsRequest
	if !bindQuery(c, &req) {
		return
	}

	slots, err := h.services.Widget.ListAvailableSlots(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err, "list available slots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// WidgetReservation - POST /api/widget/reservations
// Отказ по местам или данным приходит в теле с success=false и кодом 200
func (h *Handlers) WidgetReservation(c *gin.Context) {
	var req models.WidgetReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, models.WidgetReservationResult{Error: "Please check the reservation details"})
		return
	}

	result, err := h.services.Widget.CreateReservation(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "create reservation")
		return
	}

	status := http.StatusOK
	if result.Success {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
