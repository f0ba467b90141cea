package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const EventTypeReviewRequested EventType = "payment.review_requested"

// ReviewDecision is a back-office decision delivered over Kafka instead of
// the admin HTTP API.
type ReviewDecision struct {
	ID             string                    `json:"id"`
	Type           EventType                 `json:"type"`
	VerificationID string                    `json:"verification_id"`
	ReviewerID     string                    `json:"reviewer_id"`
	Decision       models.VerificationStatus `json:"decision"`
	Notes          string                    `json:"notes"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// Reviewer applies a review decision to a payment verification.
type Reviewer interface {
	ReviewVerification(ctx context.Context, reviewerID, verificationID string, req *models.ReviewRequest) (*models.PaymentVerification, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// ReviewConsumer feeds reviewer decisions from Kafka into the payment
// verification state machine. An offset is committed once its decision is
// applied or rejected for good; storage failures are retried in place.
type ReviewConsumer struct {
	reader     messageReader
	reviewer   Reviewer
	logger     *logging.Logger
	retryDelay time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewReviewConsumer(cfg config.KafkaConfig, reviewer Reviewer, logger *logging.Logger) *ReviewConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ReviewsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &ReviewConsumer{
		reader:   reader,
		reviewer: reviewer,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *ReviewConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting review consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Review consumer stopped")
			return nil
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				select {
				case <-c.stopCh:
					c.logger.Info("Review consumer stopped")
					return nil
				default:
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			if !c.process(ctx, msg) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Info("Review consumer stopped")
				return nil
			}
		}
	}
}

// process handles msg until it is settled and commits its offset. It
// returns false when the consumer is cancelled or stopped first.
func (c *ReviewConsumer) process(ctx context.Context, msg kafka.Message) bool {
	delay := c.retryDelay
	if delay == 0 {
		delay = minRetryDelay
	}

	for !c.handleMessage(ctx, msg) {
		c.logger.Warn("Retrying review decision", logging.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"delay":     delay.String(),
		})
		select {
		case <-ctx.Done():
			return false
		case <-c.stopCh:
			return false
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit review decision", logging.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
			"error":     err.Error(),
		})
	}
	return true
}

func (c *ReviewConsumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.reader.Close()
	})
}

// handleMessage reports whether msg is settled. Only a failure to reach the
// ledger leaves it unsettled.
func (c *ReviewConsumer) handleMessage(ctx context.Context, msg kafka.Message) bool {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var decision ReviewDecision
	if err := json.Unmarshal(msg.Value, &decision); err != nil {
		c.logger.Error("Failed to unmarshal review decision", logging.Fields{"error": err.Error()})
		return true
	}

	if decision.Type != EventTypeReviewRequested {
		c.logger.Debug("Ignoring unknown event type", logging.Fields{"type": decision.Type})
		return true
	}

	if decision.ReviewerID == "" || decision.VerificationID == "" {
		c.logger.Warn("Dropping incomplete review decision", logging.Fields{"event_id": decision.ID})
		return true
	}

	_, err := c.reviewer.ReviewVerification(ctx, decision.ReviewerID, decision.VerificationID, &models.ReviewRequest{
		Decision: decision.Decision,
		Notes:    decision.Notes,
	})
	if err != nil {
		fields := logging.Fields{
			"verification_id": decision.VerificationID,
			"reviewer_id":     decision.ReviewerID,
			"error":           err.Error(),
		}
		code := errors.CodeOf(err)
		if code == errors.CodeDependencyUnavailable || code == "" {
			c.logger.Error("Failed to apply review decision", fields)
			return false
		}
		// Rejected decisions are settled; the reviewer sees the
		// verification unchanged in the back office.
		c.logger.Warn("Review decision rejected", fields)
		return true
	}

	c.logger.Info("Review decision applied", logging.Fields{
		"verification_id": decision.VerificationID,
		"decision":        decision.Decision,
	})
	return true
}
