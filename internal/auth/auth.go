// Package auth hashes passwords and issues the bearer tokens that identify
// users and payment reviewers.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
)

// Claims is the token payload. Subject holds the user or reviewer id.
type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "acme-storefront",
		now:    time.Now,
	}
}

// IssueUserToken signs a customer token valid for the configured TTL.
func (m *TokenManager) IssueUserToken(userID, email string) (string, time.Time, error) {
	return m.issue(userID, RoleUser, email, m.ttl)
}

// IssueReviewerToken signs a back-office token.
func (m *TokenManager) IssueReviewerToken(reviewerID string, ttl time.Duration) (string, time.Time, error) {
	return m.issue(reviewerID, RoleReviewer, "", ttl)
}

func (m *TokenManager) issue(subject string, role Role, email string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(ttl)
	claims := Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a token and returns its claims. Every failure is
// reported as errors.ErrUnauthorized.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, errors.New(errors.CodeUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
