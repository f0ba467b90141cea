package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository/repotest"
)

const testSessionTTL = 5 * 24 * time.Hour

type fixture struct {
	ledger   *repository.Ledger
	sessions *repository.RedisSessionStore
	mr       *miniredis.Miniredis
	stores   *repository.Stores
	catalog  *Catalog
	events   *events.MockEventPublisher
	notifier *clients.MockNotificationClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := repotest.NewLedger(t)
	sessions, mr := repotest.NewSessionStore(t, testSessionTTL)

	return &fixture{
		ledger:   ledger,
		sessions: sessions,
		mr:       mr,
		stores:   repository.NewStores(sessions, ledger),
		catalog:  NewCatalog(config.CatalogConfig{MediaBaseURL: "/media", PlaceholderImage: "/media/placeholder.png"}),
		events:   events.NewMockEventPublisher(),
		notifier: clients.NewMockNotificationClient(),
	}
}

func (f *fixture) cartService() *CartService {
	return NewCartService(f.stores, f.ledger.Queries(), f.catalog)
}

func (f *fixture) favoritesService() *FavoritesService {
	return NewFavoritesService(f.stores, f.ledger.Queries(), f.catalog)
}

func (f *fixture) mergeService() *MergeService {
	return NewMergeService(f.sessions, f.ledger, f.events)
}

func (f *fixture) orderService() *OrderService {
	return NewOrderService(f.ledger, f.catalog, f.events, f.notifier)
}

func (f *fixture) paymentService() *PaymentService {
	return NewPaymentService(f.ledger, f.events, f.notifier)
}

// placeOrder seeds a user cart and materializes it.
func (f *fixture) placeOrder(t *testing.T, userID string) *models.Order {
	t.Helper()
	ctx := context.Background()

	repotest.SeedProduct(t, f.ledger, "tee", "100", "0", 10)
	require.NoError(t, f.cartService().AddItem(ctx, models.UserIdentity{UserID: userID}, "tee", 2))

	order, err := f.orderService().CreateFromCart(ctx, userID, "1 Main St")
	require.NoError(t, err)
	return order
}

// brokenSessions fails selected claims to simulate an unavailable session store.
type brokenSessions struct {
	GuestSessions
	failCart      bool
	failFavorites bool
}

var errSessionsDown = stderrors.New("session store down")

func (b *brokenSessions) ClaimCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	if b.failCart {
		return nil, errSessionsDown
	}
	return b.GuestSessions.ClaimCart(ctx, sessionID)
}

func (b *brokenSessions) ClaimFavorites(ctx context.Context, sessionID string) ([]string, error) {
	if b.failFavorites {
		return nil, errSessionsDown
	}
	return b.GuestSessions.ClaimFavorites(ctx, sessionID)
}

// failingLedger rejects every transaction.
type failingLedger struct {
	TxRunner
}

var errLedgerDown = stderrors.New("ledger down")

func (failingLedger) InTx(ctx context.Context, fn func(q *repository.Queries) error) error {
	return errLedgerDown
}
