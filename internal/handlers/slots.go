package handlers

import (
	"net/http"

	"tourdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// slotFilter читает from/to и activity_id из query
func slotFilter(c *gin.Context) (models.SlotFilter, bool) {
	var f models.SlotFilter
	if !bindQuery(c, &f) {
		return f, false
	}
	activityID, ok := queryID(c, "activity_id")
	if !ok {
		return f, false
	}
	f.ActivityID = activityID
	return f, true
}

// CreateSlot - POST /api/slots
func (h *Handlers) CreateSlot(c *gin.Context) {
	var req models.CreateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.services.Slots.Create(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "create slot")
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// CreateRecurringSlots - POST /api/slots/recurring
// Каждая дата создается отдельно; частичный успех возвращает 207
func (h *Handlers) CreateRecurringSlots(c *gin.Context) {
	var req models.CreateRecurringSlotsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.services.Slots.CreateRecurring(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "create recurring slots")
		return
	}

	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ListSlots - GET /api/slots?activity_id=&from=&to=
func (h *Handlers) ListSlots(c *gin.Context) {
	f, ok := slotFilter(c)
	if !ok {
		return
	}

	slots, err := h.services.Slots.List(c.Request.Context(), sess(c), f)
	if err != nil {
		handleServiceError(c, err, "list slots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// SlotCalendar - GET /api/slots/calendar?from=&to=
func (h *Handlers) SlotCalendar(c *gin.Context) {
	f, ok := slotFilter(c)
	if !ok {
		return
	}

	days, err := h.services.Slots.Calendar(c.Request.Context(), sess(c), f)
	if err != nil {
		handleServiceError(c, err, "load calendar")
		return
	}
	c.JSON(http.StatusOK, days)
}

// SlotSchedule - GET /api/slots/schedule
func (h *Handlers) SlotSchedule(c *gin.Context) {
	f, ok := slotFilter(c)
	if !ok {
		return
	}

	upcoming, past, err := h.services.Slots.Schedule(c.Request.Context(), sess(c), f)
	if err != nil {
		handleServiceError(c, err, "load schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "past": past})
}

// GetSlot - GET /api/slots/:id
func (h *Handlers) GetSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	slot, err := h.services.Slots.Get(c.Request.Context(), sess(c), id)
	if err != nil {
		handleServiceError(c, err, "get slot")
		return
	}
	c.JSON(http.StatusOK, slot)
}

// UpdateSlot - PUT /api/slots/:id
func (h *Handlers) UpdateSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.services.Slots.Update(c.Request.Context(), sess(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "update slot")
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DeleteSlot - DELETE /api/slots/:id
func (h *Handlers) DeleteSlot(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Slots.Delete(c.Request.Context(), sess(c), id); err != nil {
		handleServiceError(c, err, "delete slot")
		return
	}
	c.Status(http.StatusNoContent)
}
