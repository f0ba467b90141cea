package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Register handles POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(HeaderSessionID)
	}

	result, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Registration successful", gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
		"migration":  result.Migration,
	})
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(HeaderSessionID)
	}

	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
		"migration":  result.Migration,
	})
}
