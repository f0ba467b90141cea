package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

// CreateGuestSession handles POST /api/v1/guest/session
func (h *Handlers) CreateGuestSession(c *gin.Context) {
	respond(c, http.StatusCreated, "Guest session created", gin.H{
		"session_id": h.sessions.NewSessionID(),
		"expires_in": int(h.sessions.TTL() / time.Second),
	})
}

// AddToCart handles POST /api/v1/cart
func (h *Handlers) AddToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	id, _ := identityFrom(c)
	if err := h.cart.AddItem(c.Request.Context(), id, req.ProductID, quantity); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Item added to cart", nil)
}

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	id, _ := identityFrom(c)
	cart, err := h.cart.GetCart(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Cart retrieved", gin.H{
		"items":   cart.Items,
		"summary": cart.Summary,
	})
}

// UpdateCartQuantity handles PUT /api/v1/cart
func (h *Handlers) UpdateCartQuantity(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "product_id and quantity are required")
		return
	}

	id, _ := identityFrom(c)
	if err := h.cart.SetQuantity(c.Request.Context(), id, req.ProductID, *req.Quantity); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Cart updated", nil)
}

// RemoveCartItem handles DELETE /api/v1/cart/:productId
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	id, _ := identityFrom(c)
	if err := h.cart.RemoveItem(c.Request.Context(), id, c.Param("productId")); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Item removed from cart", nil)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	id, _ := identityFrom(c)
	if err := h.cart.ClearCart(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Cart cleared", nil)
}
