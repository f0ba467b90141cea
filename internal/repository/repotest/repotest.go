// Package repotest builds hermetic stores for tests: a migrated SQLite
// ledger and a miniredis-backed session store.
package repotest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"

	_ "modernc.org/sqlite"
)

// NewLedger returns a ledger over a fresh SQLite file with all migrations applied.
func NewLedger(t testing.TB) *repository.Ledger {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repository.RunMigrations(db, repository.DialectSQLite))

	return repository.NewLedger(sqlx.NewDb(db, "sqlite3"), logging.NewNop())
}

// NewSessionStore returns a session store over an in-memory Redis.
func NewSessionStore(t testing.TB, ttl time.Duration) (*repository.RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return repository.NewRedisSessionStore(client, ttl, logging.NewNop()), mr
}

// SeedProduct stores a product with the given price, discount percent and stock.
func SeedProduct(t testing.TB, l *repository.Ledger, id, price, discount string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Discount: decimal.RequireFromString(discount),
		Stock:    stock,
		Category: "apparel",
		Sizes:    models.StringList{"S", "M", "L"},
		Image:    id + ".jpg",
	}
	require.NoError(t, l.Queries().SaveProduct(context.Background(), p))
	return p
}

// SeedUser stores a user with a throwaway password hash.
func SeedUser(t testing.TB, l *repository.Ledger, id, email string) *models.User {
	t.Helper()

	u := &models.User{
		ID:           id,
		Name:         "User " + id,
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, l.Queries().CreateUser(context.Background(), u))
	return u
}
