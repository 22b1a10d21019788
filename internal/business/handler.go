package business

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

func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ===========================
// List Businesses - GET /businesses
func (h *Handler) ListBusinesses(c *gin.Context) {
	businesses, err := h.Service.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": businesses})
}

// ===========================
// Get Business - GET /businesses/:id
func (h *Handler) GetBusiness(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": b})
}

// ===========================
// Create Business - POST /businesses
func (h *Handler) CreateBusiness(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	b, err := h.Service.Create(c.Request.Context(), identity, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": b})
}

// ===========================
// Update Business - PUT /businesses/:id
func (h *Handler) UpdateBusiness(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	b, err := h.Service.Update(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": b})
}

// ===========================
// Delete Business - DELETE /businesses/:id
func (h *Handler) DeleteBusiness(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	if err := h.Service.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "business deleted successfully"})
}

// ===========================
// List Members - GET /businesses/:id/members
func (h *Handler) ListMembers(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	members, err := h.Service.ListMembers(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}

// ===========================
// Add Member - POST /businesses/:id/members
func (h *Handler) AddMember(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}

	p, err := h.Service.AddMember(c.Request.Context(), identity, c.Param("id"), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": p})
}

// ===========================
// Remove Member - DELETE /businesses/:id/members/:userId
func (h *Handler) RemoveMember(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)

	if err := h.Service.RemoveMember(c.Request.Context(), identity, c.Param("id"), c.Param("userId")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "member removed"})
}
