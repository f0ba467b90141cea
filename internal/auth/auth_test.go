package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 15*24*time.Hour)

	token, expires, err := m.IssueUserToken("u1", "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*24*time.Hour), expires, time.Minute)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("different", time.Hour)

	token, _, err := other.IssueUserToken("u1", "")
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = m.Parse("not-a-token")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	past := NewTokenManager("secret", time.Hour)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := past.IssueUserToken("u1", "")
	require.NoError(t, err)

	_, err = m.Parse(expired)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestTokenManager_ReviewerRole(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, _, err := m.IssueReviewerToken("rev-1", time.Hour)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleReviewer, claims.Role)
	assert.Equal(t, "rev-1", claims.Subject)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
