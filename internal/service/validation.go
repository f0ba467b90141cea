package service

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	maxIDLength      = 128
	minPasswordLen   = 6
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,128}$`)

func validateProductID(productID string) error {
	if strings.TrimSpace(productID) == "" {
		return errors.NewValidationError("product_id", "product ID is required")
	}
	if len(productID) > maxIDLength {
		return errors.NewValidationError("product_id", "product ID is too long")
	}
	return nil
}

// ValidateSessionID checks a client-supplied guest session token.
func ValidateSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return errors.NewValidationError("session_id", "invalid session ID")
	}
	return nil
}

func validateRegister(req *models.RegisterRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.NewValidationError("email", "a valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return errors.NewValidationError("password", "password must be at least 6 characters")
	}
	if req.SessionID != "" {
		return ValidateSessionID(req.SessionID)
	}
	return nil
}

func validateLogin(req *models.LoginRequest) error {
	if strings.TrimSpace(req.Identifier) == "" {
		return errors.NewValidationError("identifier", "email or phone is required")
	}
	if req.Password == "" {
		return errors.NewValidationError("password", "password is required")
	}
	if req.SessionID != "" {
		return ValidateSessionID(req.SessionID)
	}
	return nil
}

func validateSubmitVerification(req *models.SubmitVerificationRequest) error {
	if strings.TrimSpace(req.OrderID) == "" {
		return errors.NewValidationError("order_id", "order ID is required")
	}
	if strings.TrimSpace(req.TransactionReference) == "" {
		return errors.NewValidationError("transaction_reference", "transaction reference is required")
	}
	if strings.TrimSpace(req.ReferenceNumber) == "" {
		return errors.NewValidationError("reference_number", "reference number is required")
	}
	if !req.AmountPaid.IsPositive() {
		return errors.NewValidationError("amount_paid", "amount paid must be positive")
	}
	return nil
}

func validateReview(req *models.ReviewRequest) error {
	switch req.Decision {
	case models.VerificationVerified, models.VerificationRejected:
		return nil
	}
	return errors.NewValidationError("decision", "decision must be verified or rejected")
}

// normalizePage clamps paging input to sane bounds.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
