package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// GuestMerger transfers guest state to a freshly authenticated user.
type GuestMerger interface {
	TransferAll(ctx context.Context, sessionID, userID string) *models.MigrationResult
}

// AuthService registers and logs in customers. Both operations merge the
// supplied guest session, if any, without letting the merge fail them.
type AuthService struct {
	ledger     TxRunner
	tokens     *auth.TokenManager
	merger     GuestMerger
	bcryptCost int
	logger     *logging.Logger
	now        func() time.Time
}

func NewAuthService(ledger TxRunner, tokens *auth.TokenManager, merger GuestMerger, bcryptCost int) *AuthService {
	return &AuthService{
		ledger:     ledger,
		tokens:     tokens,
		merger:     merger,
		bcryptCost: bcryptCost,
		logger:     logging.New("auth-service"),
		now:        utcNow,
	}
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}

	if err := s.ledger.Queries().CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", logging.Fields{"user_id": user.ID})

	return s.complete(ctx, user, req.SessionID)
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	if err := validateLogin(req); err != nil {
		return nil, err
	}

	identifier := req.Identifier
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.ledger.Queries().FindUserByLogin(ctx, identifier)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Login rejected", logging.Fields{"user_id": user.ID})
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	return s.complete(ctx, user, req.SessionID)
}

func (s *AuthService) complete(ctx context.Context, user *models.User, sessionID string) (*models.AuthResult, error) {
	token, expires, err := s.tokens.IssueUserToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	result := &models.AuthResult{Token: token, ExpiresAt: expires, User: user}
	if sessionID != "" && s.merger != nil {
		result.Migration = s.merger.TransferAll(ctx, sessionID, user.ID)
	}
	return result, nil
}
