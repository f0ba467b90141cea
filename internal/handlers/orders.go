package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CreateOrder handles POST /api/v1/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	user, _ := userFrom(c)
	order, err := h.orders.CreateFromCart(c.Request.Context(), user.UserID, req.ShippingAddress)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Order created", gin.H{"order": order})
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	user, _ := userFrom(c)
	page, err := h.orders.ListOrders(c.Request.Context(), user.UserID, queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Orders retrieved", gin.H{
		"orders": page.Orders,
		"page":   page.Page,
		"limit":  page.Limit,
		"total":  page.Total,
	})
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	user, _ := userFrom(c)
	details, err := h.orders.GetOrder(c.Request.Context(), user.UserID, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Order retrieved", gin.H{
		"order":                details.Order,
		"payment_verification": details.Verification,
		"history":              details.History,
	})
}

// CancelOrder handles PUT /api/v1/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	user, _ := userFrom(c)
	order, err := h.orders.CancelOrder(c.Request.Context(), user.UserID, c.Param("id"), req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Order cancelled", gin.H{"order": order})
}
