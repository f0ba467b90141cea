package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository/repotest"
)

func TestSessionStore_NewSessionID(t *testing.T) {
	store, _ := repotest.NewSessionStore(t, time.Hour)

	a, b := store.NewSessionID(), store.NewSessionID()
	assert.True(t, strings.HasPrefix(a, "guest_"))
	assert.NotEqual(t, a, b)
}

func TestSessionStore_CartIncrementIsAdditive(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 2))
	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 3))
	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p2", 1))

	lines, err := store.CartLines(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 5}, {ProductID: "p2", Quantity: 1}}, lines)

	assert.Equal(t, "5", mr.HGet("cart:guest_1", "p1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:guest_1"))
}

func TestSessionStore_SetAndRemove(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 2))
	mr.FastForward(30 * time.Minute)

	require.NoError(t, store.SetCartQuantity(ctx, "guest_1", "p1", 7))
	assert.Equal(t, time.Hour, mr.TTL("cart:guest_1"), "mutation refreshes TTL")

	lines, err := store.CartLines(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 7}}, lines)

	require.NoError(t, store.RemoveCartLine(ctx, "guest_1", "p1"))
	require.NoError(t, store.RemoveCartLine(ctx, "guest_1", "p1"))

	lines, err = store.CartLines(ctx, "guest_1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSessionStore_ExpiredSessionReadsEmpty(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 1))
	require.NoError(t, store.AddFavorite(ctx, "guest_1", "p1"))

	mr.FastForward(2 * time.Hour)

	lines, err := store.CartLines(ctx, "guest_1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	ids, err := store.FavoriteIDs(ctx, "guest_1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSessionStore_SkipsMalformedEntries(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)

	mr.HSet("cart:guest_1", "p1", "3")
	mr.HSet("cart:guest_1", "p2", "lots")
	mr.HSet("cart:guest_1", "p3", "0")

	lines, err := store.CartLines(context.Background(), "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 3}}, lines)
}

func TestSessionStore_Favorites(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.AddFavorite(ctx, "guest_1", "p2"))
	require.NoError(t, store.AddFavorite(ctx, "guest_1", "p1"))
	require.NoError(t, store.AddFavorite(ctx, "guest_1", "p1"))

	ids, err := store.FavoriteIDs(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	n, err := store.CountFavorites(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := store.IsFavorite(ctx, "guest_1", "p2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.RemoveFavorite(ctx, "guest_1", "p2"))
	require.NoError(t, store.RemoveFavorite(ctx, "guest_1", "p2"))

	ok, err = store.IsFavorite(ctx, "guest_1", "p2")
	require.NoError(t, err)
	assert.False(t, ok)

	claimed, err := store.ClaimFavorites(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, claimed)
	assert.False(t, mr.Exists("favorites:guest_1"))

	again, err := store.ClaimFavorites(ctx, "guest_1")
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, store.RestoreFavorites(ctx, "guest_1", claimed))
	ok, err = store.IsFavorite(ctx, "guest_1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionStore_ClaimCartIsExclusive(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 2))

	lines, err := store.ClaimCart(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "p1", Quantity: 2}}, lines)
	assert.False(t, mr.Exists("cart:guest_1"))

	again, err := store.ClaimCart(ctx, "guest_1")
	require.NoError(t, err)
	assert.Empty(t, again)

	// A line added after the claim survives the restore.
	require.NoError(t, store.IncrCartQuantity(ctx, "guest_1", "p1", 1))
	require.NoError(t, store.RestoreCart(ctx, "guest_1", lines))
	assert.Equal(t, "3", mr.HGet("cart:guest_1", "p1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:guest_1"))
}

func TestSessionStore_UnavailableIsTyped(t *testing.T) {
	store, mr := repotest.NewSessionStore(t, time.Hour)
	mr.Close()

	_, err := store.CartLines(context.Background(), "guest_1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDependencyUnavailable))
}
