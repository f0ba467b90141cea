package repository

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const verificationColumns = `id, order_id, transaction_reference, reference_number, screenshot_url,
	amount_paid, status, verified_by, notes, submitted_at, reviewed_at`

// InsertVerification stores a new claim. A second claim for the same order
// is rejected by the unique index and reported as errors.ErrDuplicateSubmission.
func (q *Queries) InsertVerification(ctx context.Context, v *models.PaymentVerification) error {
	_, err := q.exec(ctx, `
		INSERT INTO payment_verifications (`+verificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.OrderID, v.TransactionReference, v.ReferenceNumber, v.ScreenshotURL,
		v.AmountPaid, string(v.Status), v.VerifiedBy, v.Notes, v.SubmittedAt, v.ReviewedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrDuplicateSubmission
		}
		return q.fail("insert verification", err, logging.Fields{"order_id": v.OrderID})
	}
	return nil
}

func (q *Queries) GetVerification(ctx context.Context, id string) (*models.PaymentVerification, error) {
	var v models.PaymentVerification
	err := q.get(ctx, &v, `SELECT `+verificationColumns+` FROM payment_verifications WHERE id = ?`, id)
	if err != nil {
		return nil, q.fail("get verification", err, logging.Fields{"verification_id": id})
	}
	return &v, nil
}

func (q *Queries) GetVerificationByOrder(ctx context.Context, orderID string) (*models.PaymentVerification, error) {
	var v models.PaymentVerification
	err := q.get(ctx, &v, `SELECT `+verificationColumns+` FROM payment_verifications WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, q.fail("get verification by order", err, logging.Fields{"order_id": orderID})
	}
	return &v, nil
}

// ReviewVerification records a reviewer decision on a pending claim. It
// reports false when the claim was no longer pending. Only the row state is
// touched; the caller moves the order.
func (q *Queries) ReviewVerification(ctx context.Context, id string, status models.VerificationStatus, reviewerID, notes string, at time.Time) (bool, error) {
	var verifiedBy *string
	if status == models.VerificationVerified {
		verifiedBy = &reviewerID
	}
	n, err := q.exec(ctx, `
		UPDATE payment_verifications
		SET status = ?, verified_by = ?, notes = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`,
		string(status), verifiedBy, notes, at, id, string(models.VerificationPending),
	)
	if err != nil {
		return false, q.fail("review verification", err, logging.Fields{"verification_id": id})
	}
	return n > 0, nil
}

// UpdateVerificationNotes replaces the notes of a reviewed claim. The
// decision and the reviewer stay as first recorded.
func (q *Queries) UpdateVerificationNotes(ctx context.Context, id, notes string, at time.Time) error {
	_, err := q.exec(ctx, `
		UPDATE payment_verifications
		SET notes = ?, reviewed_at = ?
		WHERE id = ?`,
		notes, at, id,
	)
	if err != nil {
		return q.fail("update verification notes", err, logging.Fields{"verification_id": id})
	}
	return nil
}

// ListVerifications pages through claims joined with their orders, oldest
// first. An empty status lists every claim.
func (q *Queries) ListVerifications(ctx context.Context, status models.VerificationStatus, limit, offset int) ([]*models.VerificationListItem, error) {
	items := []*models.VerificationListItem{}
	query := `
		SELECT pv.id, pv.order_id, pv.transaction_reference, pv.reference_number, pv.screenshot_url,
		       pv.amount_paid, pv.status, pv.verified_by, pv.notes, pv.submitted_at, pv.reviewed_at,
		       o.order_number, o.user_id, o.total AS order_total, o.order_status
		FROM payment_verifications pv
		JOIN orders o ON o.id = pv.order_id`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE pv.status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY pv.submitted_at, pv.id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	if err := q.selectAll(ctx, &items, query, args...); err != nil {
		return nil, q.fail("list verifications", err, logging.Fields{"status": status})
	}
	return items, nil
}

func (q *Queries) CountVerifications(ctx context.Context, status models.VerificationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM payment_verifications`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}

	var n int
	if err := q.get(ctx, &n, query, args...); err != nil {
		return 0, q.fail("count verifications", err, logging.Fields{"status": status})
	}
	return n, nil
}
