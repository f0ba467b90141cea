package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const orderColumns = `id, order_number, user_id, items, subtotal, shipping, total,
	payment_status, order_status, shipping_address, ordered_at, updated_at`

func (q *Queries) InsertOrder(ctx context.Context, o *models.Order) error {
	_, err := q.exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.UserID, o.Items, o.Subtotal, o.Shipping, o.Total,
		string(o.PaymentStatus), string(o.OrderStatus), o.ShippingAddress, o.OrderedAt, o.UpdatedAt,
	)
	if err != nil {
		return q.fail("insert order", err, logging.Fields{"order_id": o.ID, "user_id": o.UserID})
	}
	return nil
}

func (q *Queries) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := q.get(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, q.fail("get order", err, logging.Fields{"order_id": id})
	}
	return &o, nil
}

// GetUserOrder reads an order only if userID owns it. Orders of other users
// are reported as not found.
func (q *Queries) GetUserOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	var o models.Order
	err := q.get(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, q.fail("get user order", err, logging.Fields{"order_id": id, "user_id": userID})
	}
	return &o, nil
}

func (q *Queries) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*models.Order, error) {
	orders := []*models.Order{}
	err := q.selectAll(ctx, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = ?
		ORDER BY ordered_at DESC, id
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, q.fail("list user orders", err, logging.Fields{"user_id": userID})
	}
	return orders, nil
}

func (q *Queries) CountUserOrders(ctx context.Context, userID string) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID); err != nil {
		return 0, q.fail("count user orders", err, logging.Fields{"user_id": userID})
	}
	return n, nil
}

// OrderTransition is a conditional status update.
type OrderTransition struct {
	OrderID string
	// From lists the statuses the order must currently be in.
	From []models.OrderStatus
	To   models.OrderStatus
	// Payment, when set, replaces the payment status too.
	Payment models.PaymentStatus
	At      time.Time
}

// TransitionOrder applies t only if the order is still in one of t.From.
// It reports whether a row changed, which makes concurrent transitions
// of the same order mutually exclusive.
func (q *Queries) TransitionOrder(ctx context.Context, t OrderTransition) (bool, error) {
	if len(t.From) == 0 {
		return false, nil
	}

	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	set := `order_status = ?, updated_at = ?`
	args := []interface{}{string(t.To), t.At}
	if t.Payment != "" {
		set += `, payment_status = ?`
		args = append(args, string(t.Payment))
	}
	args = append(args, t.OrderID, from)

	query, args, err := sqlx.In(`UPDATE orders SET `+set+` WHERE id = ? AND order_status IN (?)`, args...)
	if err != nil {
		return false, err
	}

	n, err := q.exec(ctx, query, args...)
	if err != nil {
		return false, q.fail("transition order", err, logging.Fields{
			"order_id": t.OrderID,
			"to":       t.To,
		})
	}
	return n > 0, nil
}
