package repository

import (
	"context"
	"sort"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func (q *Queries) ListCartLines(ctx context.Context, userID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := q.selectAll(ctx, &lines, `
		SELECT product_id, quantity FROM cart_items
		WHERE user_id = ?
		ORDER BY created_at, product_id`, userID)
	if err != nil {
		return nil, q.fail("list cart lines", err, logging.Fields{"user_id": userID})
	}
	return lines, nil
}

// AddCartQuantity increments an existing line or creates it.
func (q *Queries) AddCartQuantity(ctx context.Context, userID, productID string, quantity int, at time.Time) error {
	_, err := q.exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + excluded.quantity,
			updated_at = excluded.updated_at`,
		userID, productID, quantity, at, at,
	)
	if err != nil {
		return q.fail("add cart quantity", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return nil
}

// SetCartQuantity overwrites the quantity of a line, creating it if needed.
func (q *Queries) SetCartQuantity(ctx context.Context, userID, productID string, quantity int, at time.Time) error {
	_, err := q.exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`,
		userID, productID, quantity, at, at,
	)
	if err != nil {
		return q.fail("set cart quantity", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return nil
}

func (q *Queries) DeleteCartLine(ctx context.Context, userID, productID string) error {
	_, err := q.exec(ctx, `DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return q.fail("delete cart line", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return nil
}

func (q *Queries) ClearCart(ctx context.Context, userID string) error {
	if _, err := q.exec(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return q.fail("clear cart", err, logging.Fields{"user_id": userID})
	}
	return nil
}

// TakeCartLines deletes the user's cart and returns the removed lines sorted
// by product. Each row is returned to exactly one of several concurrent
// callers; the others see an empty cart.
func (q *Queries) TakeCartLines(ctx context.Context, userID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := q.selectAll(ctx, &lines, `
		DELETE FROM cart_items
		WHERE user_id = ?
		RETURNING product_id, quantity`, userID)
	if err != nil {
		return nil, q.fail("take cart lines", err, logging.Fields{"user_id": userID})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}
