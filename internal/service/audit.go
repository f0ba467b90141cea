package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const systemActor = "system"

// auditTrail appends order status history after the owning transaction
// has committed. Failures are logged and never surface to the caller.
type auditTrail struct {
	ledger TxRunner
	logger *logging.Logger
	now    func() time.Time
}

func (a *auditTrail) record(ctx context.Context, orderID string, status models.OrderStatus, notes, changedBy string) {
	if changedBy == "" {
		changedBy = systemActor
	}
	change := &models.OrderStatusChange{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Status:    string(status),
		Notes:     notes,
		ChangedBy: changedBy,
		CreatedAt: a.now(),
	}

	runNonCritical(ctx, a.logger, "order_history", logging.Fields{"order_id": orderID, "status": status}, func(ctx context.Context) error {
		return a.ledger.Queries().InsertStatusChange(ctx, change)
	})
}
