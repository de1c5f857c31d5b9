package handlers

import (
	"net/http"

	"tourdesk/internal/models"

	"github.com/gin-gonic/gin"
)

func reservationFilter(c *gin.Context) (models.ReservationFilter, bool) {
	var f models.ReservationFilter
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

// CreateReservation - POST /api/reservations
func (h *Handlers) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, err := h.services.Ledger.CreateReservation(c.Request.Context(), sess(c), &req)
	if err != nil {
		handleServiceError(c, err, "create reservation")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// ListReservations - GET /api/reservations?date=&activity_id=&status=
func (h *Handlers) ListReservations(c *gin.Context) {
	f, ok := reservationFilter(c)
	if !ok {
		return
	}

	reservations, err := h.services.Reservations.List(c.Request.Context(), sess(c), f)
	if err != nil {
		handleServiceError(c, err, "list reservations")
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// PartitionedReservations - GET /api/reservations/partitioned
func (h *Handlers) PartitionedReservations(c *gin.Context) {
	f, ok := reservationFilter(c)
	if !ok {
		return
	}

	partition, err := h.services.Reservations.Partition(c.Request.Context(), sess(c), f)
	if err != nil {
		handleServiceError(c, err, "list reservations")
		return
	}
	c.JSON(http.StatusOK, partition)
}

// PendingReservationsCount - GET /api/reservations/pending-count
func (h *Handlers) PendingReservationsCount(c *gin.Context) {
	count, err := h.services.Reservations.PendingCount(c.Request.Context(), sess(c))
	if err != nil {
		handleServiceError(c, err, "count pending reservations")
		return
	}
	c.JSON(http.StatusOK, models.PendingCountResponse{Count: count})
}

// GetReservation - GET /api/reservations/:id
func (h *Handlers) GetReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reservation, err := h.services.Reservations.Get(c.Request.Context(), sess(c), id)
	if err != nil {
		handleServiceError(c, err, "get reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// UpdateReservation - PATCH /api/reservations/:id
// Изменение числа людей или статуса пересчитывает занятые места
func (h *Handlers) UpdateReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, err := h.services.Ledger.UpdateReservation(c.Request.Context(), sess(c), id, &req)
	if err != nil {
		handleServiceError(c, err, "update reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// CancelReservation - POST /api/reservations/:id/cancel
// Повторная отмена ничего не меняет
func (h *Handlers) CancelReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reservation, err := h.services.Ledger.CancelReservation(c.Request.Context(), sess(c), id)
	if err != nil {
		handleServiceError(c, err, "cancel reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}
