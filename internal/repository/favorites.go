package repository

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// AddFavorite inserts the pair if absent and reports whether a row was added.
func (q *Queries) AddFavorite(ctx context.Context, userID, productID string, at time.Time) (bool, error) {
	n, err := q.exec(ctx, `
		INSERT INTO user_favorites (user_id, product_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID, at,
	)
	if err != nil {
		return false, q.fail("add favorite", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return n > 0, nil
}

func (q *Queries) RemoveFavorite(ctx context.Context, userID, productID string) error {
	_, err := q.exec(ctx, `DELETE FROM user_favorites WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return q.fail("remove favorite", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return nil
}

func (q *Queries) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM user_favorites WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return false, q.fail("check favorite", err, logging.Fields{"user_id": userID, "product_id": productID})
	}
	return n > 0, nil
}

// ListFavoriteIDs returns product ids, most recently added first.
func (q *Queries) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := q.selectAll(ctx, &ids, `
		SELECT product_id FROM user_favorites
		WHERE user_id = ?
		ORDER BY created_at DESC, product_id`, userID)
	if err != nil {
		return nil, q.fail("list favorites", err, logging.Fields{"user_id": userID})
	}
	return ids, nil
}

func (q *Queries) CountFavorites(ctx context.Context, userID string) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM user_favorites WHERE user_id = ?`, userID); err != nil {
		return 0, q.fail("count favorites", err, logging.Fields{"user_id": userID})
	}
	return n, nil
}
