package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

type advanceOrderRequest struct {
	Status models.OrderStatus `json:"status"`
	Notes  string             `json:"notes"`
}

// SubmitPaymentVerification handles POST /api/v1/payments/verifications
func (h *Handlers) SubmitPaymentVerification(c *gin.Context) {
	var req models.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, _ := userFrom(c)
	v, err := h.payments.SubmitVerification(c.Request.Context(), user.UserID, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Payment verification submitted", gin.H{"verification": v})
}

// ListVerifications handles GET /api/v1/admin/payments/verifications
func (h *Handlers) ListVerifications(c *gin.Context) {
	status := models.VerificationStatus(c.Query("status"))
	page, err := h.payments.ListVerifications(c.Request.Context(), status, queryInt(c, "page", 1), queryInt(c, "limit", 0))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Verifications retrieved", gin.H{
		"verifications": page.Verifications,
		"page":          page.Page,
		"limit":         page.Limit,
		"total":         page.Total,
	})
}

// ReviewVerification handles PUT /api/v1/admin/payments/verifications/:id
func (h *Handlers) ReviewVerification(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	reviewer, _ := reviewerFrom(c)
	v, err := h.payments.ReviewVerification(c.Request.Context(), reviewer.ReviewerID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Payment verification "+string(v.Status), gin.H{"verification": v})
}

// AdvanceOrderStatus handles PUT /api/v1/admin/orders/:id/status
func (h *Handlers) AdvanceOrderStatus(c *gin.Context) {
	var req advanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	reviewer, _ := reviewerFrom(c)
	order, err := h.orders.AdvanceOrderStatus(c.Request.Context(), reviewer.ReviewerID, c.Param("id"), req.Status, req.Notes)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Order status updated", gin.H{"order": order})
}
