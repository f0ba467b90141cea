package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository/repotest"
)

func newAuthService(f *fixture, merger GuestMerger) (*AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(f.ledger, tokens, merger, bcrypt.MinCost), tokens
}

func TestAuthService_RegisterMergesGuestState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedProduct(t, f.ledger, "P1", "10", "0", 10)
	require.NoError(t, f.sessions.IncrCartQuantity(ctx, "guest_1", "P1", 2))

	svc, tokens := newAuthService(f, f.mergeService())
	result, err := svc.Register(ctx, &models.RegisterRequest{
		Name:      "Ada",
		Email:     "Ada@Example.com",
		Phone:     "+15550100",
		Password:  "secret1",
		SessionID: "guest_1",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", result.User.Email)
	require.NotNil(t, result.Migration)
	assert.True(t, result.Migration.CartTransferred)
	assert.Equal(t, 1, result.Migration.CartItemsMigrated)

	claims, err := tokens.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.Subject)

	lines, err := f.ledger.Queries().ListCartLines(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartLine{{ProductID: "P1", Quantity: 2}}, lines)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{name: "missing name", req: models.RegisterRequest{Email: "a@b.co", Password: "secret1"}, wantErr: errors.ErrValidation},
		{name: "bad email", req: models.RegisterRequest{Name: "A", Email: "nope", Password: "secret1"}, wantErr: errors.ErrValidation},
		{name: "short password", req: models.RegisterRequest{Name: "A", Email: "a@b.co", Password: "123"}, wantErr: errors.ErrValidation},
		{name: "bad session", req: models.RegisterRequest{Name: "A", Email: "a@b.co", Password: "secret1", SessionID: "not a session!"}, wantErr: errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Register(ctx, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f, nil)
	ctx := context.Background()

	req := models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}
	_, err := svc.Register(ctx, &req)
	require.NoError(t, err)

	again := models.RegisterRequest{Name: "Ada", Email: "ADA@example.com", Password: "secret2"}
	_, err = svc.Register(ctx, &again)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Phone: "+15550100", Password: "secret1"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{name: "email", identifier: "ada@example.com", password: "secret1"},
		{name: "email case", identifier: "ADA@example.com", password: "secret1"},
		{name: "phone", identifier: "+15550100", password: "secret1"},
		{name: "wrong password", identifier: "ada@example.com", password: "nope", wantErr: errors.ErrUnauthorized},
		{name: "unknown user", identifier: "bob@example.com", password: "secret1", wantErr: errors.ErrUnauthorized},
		{name: "empty identifier", identifier: " ", password: "secret1", wantErr: errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(ctx, &models.LoginRequest{Identifier: tt.identifier, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Nil(t, result.Migration)
		})
	}
}

func TestAuthService_LoginSucceedsWhenMergeFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	broken := NewMergeService(&brokenSessions{GuestSessions: f.sessions, failCart: true, failFavorites: true}, f.ledger, f.events)
	svc, _ := newAuthService(f, broken)

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, &models.LoginRequest{Identifier: "ada@example.com", Password: "secret1", SessionID: "guest_1"})
	require.NoError(t, err)
	require.NotNil(t, result.Migration)
	assert.False(t, result.Migration.CartTransferred)
	assert.False(t, result.Migration.FavoritesTransferred)
	assert.Equal(t, "Guest data transfer failed", result.Migration.Message)
}
