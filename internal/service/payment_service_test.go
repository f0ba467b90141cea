package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func submitRequest(order *models.Order) *models.SubmitVerificationRequest {
	return &models.SubmitVerificationRequest{
		OrderID:              order.ID,
		TransactionReference: "TX-1",
		ReferenceNumber:      "REF-1",
		ScreenshotURL:        "https://cdn.example.com/receipt.png",
		AmountPaid:           order.Total,
	}
}

func TestPaymentService_SubmitVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	svc := f.paymentService()

	v, err := svc.SubmitVerification(ctx, "u1", submitRequest(order))
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, v.Status)
	require.NotNil(t, v.ScreenshotURL)

	details, err := f.orderService().GetOrder(ctx, "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, details.Order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, details.Order.PaymentStatus)
	require.NotNil(t, details.Verification)
	assert.Equal(t, v.ID, details.Verification.ID)

	assert.Contains(t, f.events.Types(), events.EventTypeVerificationSubmitted)
}

func TestPaymentService_SubmitVerificationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	svc := f.paymentService()

	bad := submitRequest(order)
	bad.AmountPaid = decimal.Zero
	_, err := svc.SubmitVerification(ctx, "u1", bad)
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.SubmitVerification(ctx, "u2", submitRequest(order))
	assert.ErrorIs(t, err, errors.ErrNotFound)

	first, err := svc.SubmitVerification(ctx, "u1", submitRequest(order))
	require.NoError(t, err)

	second := submitRequest(order)
	second.TransactionReference = "TX-2"
	_, err = svc.SubmitVerification(ctx, "u1", second)
	assert.ErrorIs(t, err, errors.ErrDuplicateSubmission)

	stored, err := f.ledger.Queries().GetVerification(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "TX-1", stored.TransactionReference)
}

func TestPaymentService_SubmitOnCancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")

	_, err := f.orderService().CancelOrder(ctx, "u1", order.ID, "")
	require.NoError(t, err)

	_, err = f.paymentService().SubmitVerification(ctx, "u1", submitRequest(order))
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)
}

func TestPaymentService_ReviewVerification(t *testing.T) {
	tests := []struct {
		name        string
		decision    models.VerificationStatus
		wantOrder   models.OrderStatus
		wantPayment models.PaymentStatus
		wantNotice  models.NotificationType
	}{
		{
			name:        "verified",
			decision:    models.VerificationVerified,
			wantOrder:   models.OrderStatusProcessing,
			wantPayment: models.PaymentStatusPaid,
			wantNotice:  models.NotificationPaymentVerified,
		},
		{
			name:        "rejected",
			decision:    models.VerificationRejected,
			wantOrder:   models.OrderStatusCancelled,
			wantPayment: models.PaymentStatusFailed,
			wantNotice:  models.NotificationPaymentRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			order := f.placeOrder(t, "u1")
			svc := f.paymentService()

			v, err := svc.SubmitVerification(ctx, "u1", submitRequest(order))
			require.NoError(t, err)

			reviewed, err := svc.ReviewVerification(ctx, "rev-1", v.ID, &models.ReviewRequest{Decision: tt.decision, Notes: "checked"})
			require.NoError(t, err)
			assert.Equal(t, tt.decision, reviewed.Status)
			require.NotNil(t, reviewed.ReviewedAt)

			got, err := f.ledger.Queries().GetOrder(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, got.OrderStatus)
			assert.Equal(t, tt.wantPayment, got.PaymentStatus)

			assert.Eventually(t, func() bool {
				for _, n := range f.notifier.Sent() {
					if n.Type == tt.wantNotice {
						return true
					}
				}
				return false
			}, time.Second, 10*time.Millisecond)
		})
	}
}

func TestPaymentService_ReviewIsIdempotentPerDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	svc := f.paymentService()

	v, err := svc.SubmitVerification(ctx, "u1", submitRequest(order))
	require.NoError(t, err)

	_, err = svc.ReviewVerification(ctx, "rev-1", v.ID, &models.ReviewRequest{Decision: models.VerificationVerified})
	require.NoError(t, err)

	again, err := svc.ReviewVerification(ctx, "rev-2", v.ID, &models.ReviewRequest{Decision: models.VerificationVerified, Notes: "double checked"})
	require.NoError(t, err)
	require.NotNil(t, again.Notes)
	assert.Equal(t, "double checked", *again.Notes)
	require.NotNil(t, again.VerifiedBy)
	assert.Equal(t, "rev-1", *again.VerifiedBy, "a repeated decision keeps the first reviewer")

	_, err = svc.ReviewVerification(ctx, "rev-1", v.ID, &models.ReviewRequest{Decision: models.VerificationRejected})
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	got, err := f.ledger.Queries().GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.OrderStatus)
}

func TestPaymentService_ReviewAfterCustomerCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, "u1")
	svc := f.paymentService()

	v, err := svc.SubmitVerification(ctx, "u1", submitRequest(order))
	require.NoError(t, err)
	_, err = f.orderService().CancelOrder(ctx, "u1", order.ID, "")
	require.NoError(t, err)

	_, err = svc.ReviewVerification(ctx, "rev-1", v.ID, &models.ReviewRequest{Decision: models.VerificationVerified})
	assert.ErrorIs(t, err, errors.ErrInvalidTransition)

	// The rolled back review leaves the claim pending.
	stored, err := f.ledger.Queries().GetVerification(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, stored.Status)
}

func TestPaymentService_ReviewValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.paymentService()
	ctx := context.Background()

	_, err := svc.ReviewVerification(ctx, "rev-1", "v1", &models.ReviewRequest{Decision: models.VerificationPending})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.ReviewVerification(ctx, "rev-1", "missing", &models.ReviewRequest{Decision: models.VerificationVerified})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestPaymentService_ListVerifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.paymentService()

	first := f.placeOrder(t, "u1")
	second := f.placeOrder(t, "u1")
	_, err := svc.SubmitVerification(ctx, "u1", submitRequest(first))
	require.NoError(t, err)
	v2, err := svc.SubmitVerification(ctx, "u1", submitRequest(second))
	require.NoError(t, err)
	_, err = svc.ReviewVerification(ctx, "rev-1", v2.ID, &models.ReviewRequest{Decision: models.VerificationRejected})
	require.NoError(t, err)

	pending, err := svc.ListVerifications(ctx, models.VerificationPending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Total)
	require.Len(t, pending.Verifications, 1)
	assert.Equal(t, first.OrderNumber, pending.Verifications[0].OrderNumber)

	all, err := svc.ListVerifications(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	_, err = svc.ListVerifications(ctx, "bogus", 1, 20)
	assert.ErrorIs(t, err, errors.ErrValidation)
}
