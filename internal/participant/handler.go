package participant

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/venue-events-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEventNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	c.JSON(status, gin.H{"error": msg})
}

// ===========================
// List Participants - GET /events/:id/participants
func (h *Handler) ListParticipants(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	participants, err := h.Service.List(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": participants})
}

// ===========================
// Register - POST /events/:id/participants
func (h *Handler) Register(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req RegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
			return
		}
	}

	ip := middleware.GetIPFromContext(c)
	p, err := h.Service.Register(c.Request.Context(), identity, c.Param("id"), req.Role, ip)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

// ===========================
// Update Participant Status - PUT /events/:id/participants
func (h *Handler) UpdateStatus(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	if req.Status != StatusPending && req.Status != StatusConfirmed && req.Status != StatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant status"})
		return
	}

	ip := middleware.GetIPFromContext(c)
	p, err := h.Service.UpdateStatus(c.Request.Context(), identity, req.ParticipantID, req.Status, ip)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

// ===========================
// Cancel Registration - DELETE /events/:id/participants/:participantId
func (h *Handler) Cancel(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	ip := middleware.GetIPFromContext(c)
	if err := h.Service.Cancel(c.Request.Context(), identity, c.Param("participantId"), ip); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "registration cancelled"})
}

// ===========================
// Export Roster - GET /events/:id/participants/export?format=csv|excel|pdf
func (h *Handler) ExportRoster(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	format := c.DefaultQuery("format", FormatCSV)

	data, filename, contentType, err := h.Service.ExportRoster(c.Request.Context(), identity, c.Param("id"), format)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}
