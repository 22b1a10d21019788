package event

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/venue-events-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// errorStatus maps service errors onto the HTTP taxonomy
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		// Upstream failures: logged with context at the source, only a
		// generic message leaves the service
		return http.StatusInternalServerError, "internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	c.JSON(status, gin.H{"error": msg})
}

// ===========================
// List Events - GET /events
func (h *Handler) ListEvents(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ListFilter{
		BusinessID: c.Query("businessId"),
		Status:     c.Query("status"),
		EventType:  c.Query("eventType"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
		Limit:      limit,
		Offset:     offset,
	}

	data, pagination, err := h.Service.ListEvents(c.Request.Context(), identity, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": pagination,
	})
}

// ===========================
// Get Event - GET /events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	result, err := h.Service.GetEvent(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ===========================
// Create Event - POST /events
func (h *Handler) CreateEvent(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	ip := middleware.GetIPFromContext(c)
	ev, err := h.Service.CreateEvent(c.Request.Context(), identity, &req, ip)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": ev})
}

// ===========================
// Update Event - PUT /events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	ip := middleware.GetIPFromContext(c)
	ev, err := h.Service.UpdateEvent(c.Request.Context(), identity, c.Param("id"), &req, ip)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ev})
}

// ===========================
// Delete Event - DELETE /events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	ip := middleware.GetIPFromContext(c)
	if err := h.Service.DeleteEvent(c.Request.Context(), identity, c.Param("id"), ip); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "event deleted successfully"})
}
