package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// PaymentVerification is a customer's claim that an order was paid
// out of band, pending back-office review.
type PaymentVerification struct {
	ID                   string             `db:"id" json:"id"`
	OrderID              string             `db:"order_id" json:"order_id"`
	TransactionReference string             `db:"transaction_reference" json:"transaction_reference"`
	ReferenceNumber      string             `db:"reference_number" json:"reference_number"`
	ScreenshotURL        *string            `db:"screenshot_url" json:"screenshot_url,omitempty"`
	AmountPaid           decimal.Decimal    `db:"amount_paid" json:"amount_paid"`
	Status               VerificationStatus `db:"status" json:"status"`
	VerifiedBy           *string            `db:"verified_by" json:"verified_by,omitempty"`
	Notes                *string            `db:"notes" json:"notes,omitempty"`
	SubmittedAt          time.Time          `db:"submitted_at" json:"submitted_at"`
	ReviewedAt           *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

type SubmitVerificationRequest struct {
	OrderID              string          `json:"order_id"`
	TransactionReference string          `json:"transaction_reference"`
	ReferenceNumber      string          `json:"reference_number"`
	ScreenshotURL        string          `json:"screenshot_url"`
	AmountPaid           decimal.Decimal `json:"amount_paid"`
}

type ReviewRequest struct {
	Decision VerificationStatus `json:"decision"`
	Notes    string             `json:"notes"`
}

// VerificationListItem joins a verification with the order it claims.
type VerificationListItem struct {
	PaymentVerification
	OrderNumber string          `db:"order_number" json:"order_number"`
	UserID      string          `db:"user_id" json:"user_id"`
	OrderTotal  decimal.Decimal `db:"order_total" json:"order_total"`
	OrderStatus OrderStatus     `db:"order_status" json:"order_status"`
}

type VerificationPage struct {
	Verifications []*VerificationListItem `json:"verifications"`
	Page          int                     `json:"page"`
	Limit         int                     `json:"limit"`
	Total         int                     `json:"total"`
}
