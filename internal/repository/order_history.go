package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func (q *Queries) InsertStatusChange(ctx context.Context, c *models.OrderStatusChange) error {
	_, err := q.exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, notes, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.OrderID, c.Status, c.Notes, c.ChangedBy, c.CreatedAt,
	)
	if err != nil {
		return q.fail("insert status change", err, logging.Fields{"order_id": c.OrderID})
	}
	return nil
}

func (q *Queries) ListStatusChanges(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	changes := []models.OrderStatusChange{}
	err := q.selectAll(ctx, &changes, `
		SELECT id, order_id, status, notes, changed_by, created_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, q.fail("list status changes", err, logging.Fields{"order_id": orderID})
	}
	return changes, nil
}
