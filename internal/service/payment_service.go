package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// PaymentService runs the payment verification state machine:
//
//	submit:   order pending     -> confirmed,  verification pending
//	verified: order confirmed   -> processing, payment paid
//	rejected: order confirmed   -> cancelled,  payment failed
type PaymentService struct {
	ledger   TxRunner
	events   EventPublisher
	notifier Notifier
	audit    *auditTrail
	logger   *logging.Logger
	now      func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(ledger TxRunner, events EventPublisher, notifier Notifier) *PaymentService {
	logger := logging.New("payment-service")
	return &PaymentService{
		ledger:   ledger,
		events:   events,
		notifier: notifier,
		audit:    &auditTrail{ledger: ledger, logger: logger, now: utcNow},
		logger:   logger,
		now:      utcNow,
	}
}

// SubmitVerification records a customer's payment claim and confirms the
// order. An order accepts at most one claim.
func (s *PaymentService) SubmitVerification(ctx context.Context, userID string, req *models.SubmitVerificationRequest) (*models.PaymentVerification, error) {
	if err := validateSubmitVerification(req); err != nil {
		return nil, err
	}

	s.logger.Info("Submitting payment verification", logging.Fields{
		"order_id": req.OrderID,
		"user_id":  userID,
	})

	var (
		v     *models.PaymentVerification
		order *models.Order
	)
	err := s.ledger.InTx(ctx, func(q *repository.Queries) error {
		var err error
		order, err = q.GetUserOrder(ctx, userID, req.OrderID)
		if err != nil {
			return err
		}

		_, err = q.GetVerificationByOrder(ctx, req.OrderID)
		if err == nil {
			return errors.ErrDuplicateSubmission
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}

		if order.OrderStatus != models.OrderStatusPending {
			return errors.InvalidTransition(string(order.OrderStatus), string(models.OrderStatusConfirmed))
		}

		now := s.now()
		v = &models.PaymentVerification{
			ID:                   uuid.New().String(),
			OrderID:              req.OrderID,
			TransactionReference: strings.TrimSpace(req.TransactionReference),
			ReferenceNumber:      strings.TrimSpace(req.ReferenceNumber),
			AmountPaid:           req.AmountPaid,
			Status:               models.VerificationPending,
			SubmittedAt:          now,
		}
		if url := strings.TrimSpace(req.ScreenshotURL); url != "" {
			v.ScreenshotURL = &url
		}

		if err := q.InsertVerification(ctx, v); err != nil {
			return err
		}

		changed, err := q.TransitionOrder(ctx, repository.OrderTransition{
			OrderID: order.ID,
			From:    []models.OrderStatus{models.OrderStatusPending},
			To:      models.OrderStatusConfirmed,
			At:      now,
		})
		if err != nil {
			return err
		}
		if !changed {
			return errors.InvalidTransition(string(order.OrderStatus), string(models.OrderStatusConfirmed))
		}

		order.OrderStatus = models.OrderStatusConfirmed
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VerificationsSubmitted.Inc()
	metrics.OrderTransitions.WithLabelValues(string(models.OrderStatusConfirmed)).Inc()
	s.audit.record(ctx, order.ID, models.OrderStatusConfirmed, "Payment verification submitted", userID)

	runNonCritical(ctx, s.logger, "publish_verification_submitted", logging.Fields{"order_id": order.ID}, func(ctx context.Context) error {
		return s.events.PublishVerificationSubmitted(ctx, v, order)
	})

	return v, nil
}

// ReviewVerification applies a reviewer's decision. Repeating the decision
// already recorded only refreshes the notes; reversing it is rejected.
func (s *PaymentService) ReviewVerification(ctx context.Context, reviewerID, verificationID string, req *models.ReviewRequest) (*models.PaymentVerification, error) {
	if err := validateReview(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, errors.ErrForbidden
	}

	s.logger.Info("Reviewing payment verification", logging.Fields{
		"verification_id": verificationID,
		"reviewer_id":     reviewerID,
		"decision":        req.Decision,
	})

	var (
		v        *models.PaymentVerification
		order    *models.Order
		previous models.OrderStatus
		repeated bool
	)
	err := s.ledger.InTx(ctx, func(q *repository.Queries) error {
		var err error
		v, err = q.GetVerification(ctx, verificationID)
		if err != nil {
			return err
		}

		now := s.now()
		switch v.Status {
		case models.VerificationPending:
		case req.Decision:
			repeated = true
			if err := q.UpdateVerificationNotes(ctx, v.ID, req.Notes, now); err != nil {
				return err
			}
			v, err = q.GetVerification(ctx, v.ID)
			return err
		default:
			return errors.InvalidTransition(string(v.Status), string(req.Decision))
		}

		order, err = q.GetOrder(ctx, v.OrderID)
		if err != nil {
			return err
		}
		previous = order.OrderStatus

		to, payment := reviewOutcome(req.Decision)
		changed, err := q.TransitionOrder(ctx, repository.OrderTransition{
			OrderID: order.ID,
			From:    []models.OrderStatus{models.OrderStatusConfirmed},
			To:      to,
			Payment: payment,
			At:      now,
		})
		if err != nil {
			return err
		}
		if !changed {
			return errors.InvalidTransition(string(order.OrderStatus), string(to))
		}

		reviewed, err := q.ReviewVerification(ctx, v.ID, req.Decision, reviewerID, req.Notes, now)
		if err != nil {
			return err
		}
		if !reviewed {
			return errors.InvalidTransition(string(models.VerificationPending), string(req.Decision))
		}

		if v, err = q.GetVerification(ctx, v.ID); err != nil {
			return err
		}
		order, err = q.GetOrder(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if repeated {
		return v, nil
	}

	metrics.VerificationsReviewed.WithLabelValues(string(req.Decision)).Inc()
	metrics.OrderTransitions.WithLabelValues(string(order.OrderStatus)).Inc()

	notes := req.Notes
	if notes == "" {
		notes = "Payment " + string(req.Decision)
	}
	s.audit.record(ctx, order.ID, order.OrderStatus, notes, reviewerID)

	fields := logging.Fields{"order_id": order.ID, "verification_id": v.ID}
	runNonCritical(ctx, s.logger, "publish_verification_reviewed", fields, func(ctx context.Context) error {
		return s.events.PublishVerificationReviewed(ctx, v, order)
	})
	runNonCritical(ctx, s.logger, "publish_order_status_changed", fields, func(ctx context.Context) error {
		return s.events.PublishOrderStatusChanged(ctx, order, previous)
	})

	go s.sendReviewNotification(context.Background(), v, order)

	return v, nil
}

// ListVerifications lists claims for the back office. An empty status lists
// every claim.
func (s *PaymentService) ListVerifications(ctx context.Context, status models.VerificationStatus, page, limit int) (*models.VerificationPage, error) {
	switch status {
	case "", models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
	default:
		return nil, errors.NewValidationError("status", fmt.Sprintf("unknown verification status %q", status))
	}
	page, limit = normalizePage(page, limit)

	q := s.ledger.Queries()
	items, err := q.ListVerifications(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := q.CountVerifications(ctx, status)
	if err != nil {
		return nil, err
	}

	return &models.VerificationPage{Verifications: items, Page: page, Limit: limit, Total: total}, nil
}

func reviewOutcome(decision models.VerificationStatus) (models.OrderStatus, models.PaymentStatus) {
	if decision == models.VerificationVerified {
		return models.OrderStatusProcessing, models.PaymentStatusPaid
	}
	return models.OrderStatusCancelled, models.PaymentStatusFailed
}

func (s *PaymentService) sendReviewNotification(ctx context.Context, v *models.PaymentVerification, order *models.Order) {
	n := &models.Notification{
		Type:    models.NotificationPaymentVerified,
		UserID:  order.UserID,
		Subject: fmt.Sprintf("Payment for order %s verified", order.OrderNumber),
		Body:    "Your payment was verified and your order is being processed.",
		Metadata: map[string]string{
			"order_id":        order.ID,
			"verification_id": v.ID,
		},
	}
	if v.Status == models.VerificationRejected {
		n.Type = models.NotificationPaymentRejected
		n.Subject = fmt.Sprintf("Payment for order %s rejected", order.OrderNumber)
		n.Body = "We could not verify your payment and the order was cancelled."
		if v.Notes != nil && *v.Notes != "" {
			n.Body += " Reason: " + *v.Notes
		}
	}

	runNonCritical(ctx, s.logger, "notification", logging.Fields{"type": n.Type, "user_id": n.UserID}, func(ctx context.Context) error {
		return s.notifier.Send(ctx, n)
	})
}
