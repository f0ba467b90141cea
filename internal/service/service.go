// Package service implements the storefront business rules: carts and
// favorites for guests and users, guest-to-user merge, order
// materialization and payment verification.
package service

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// StoreResolver maps an identity to its backing cart and favorites stores.
type StoreResolver interface {
	Cart(id models.Identity) repository.CartLineStore
	Favorites(id models.Identity) repository.FavoriteSet
}

// ProductReader reads live catalog data. Results are never cached across
// requests.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

// TxRunner gives access to the ledger inside and outside transactions.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q *repository.Queries) error) error
	Queries() *repository.Queries
}

// GuestSessions is the part of the session store the merge claims from.
// A claim removes the guest data atomically; a restore puts it back.
type GuestSessions interface {
	ClaimCart(ctx context.Context, sessionID string) ([]models.CartLine, error)
	RestoreCart(ctx context.Context, sessionID string, lines []models.CartLine) error
	ClaimFavorites(ctx context.Context, sessionID string) ([]string, error)
	RestoreFavorites(ctx context.Context, sessionID string, ids []string) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error
	PublishVerificationSubmitted(ctx context.Context, v *models.PaymentVerification, order *models.Order) error
	PublishVerificationReviewed(ctx context.Context, v *models.PaymentVerification, order *models.Order) error
	PublishGuestMerged(ctx context.Context, userID string, result *models.MigrationResult) error
}

type Notifier interface {
	Send(ctx context.Context, n *models.Notification) error
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// runNonCritical runs a side effect whose failure must not fail the caller.
// The error is logged, counted and returned so callers can report it.
func runNonCritical(ctx context.Context, logger *logging.Logger, task string, fields logging.Fields, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}

	metrics.NonCriticalFailures.WithLabelValues(task).Inc()

	f := logging.Fields{"task": task, "error": err.Error()}
	for k, v := range fields {
		f[k] = v
	}
	logger.Warn("Non-critical task failed", f)
	return err
}
