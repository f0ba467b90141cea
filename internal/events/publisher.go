package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// EventType represents the type of storefront event.
type EventType string

const (
	EventTypeOrderCreated          EventType = "order.created"
	EventTypeOrderStatusChanged    EventType = "order.status_changed"
	EventTypeOrderCancelled        EventType = "order.cancelled"
	EventTypeVerificationSubmitted EventType = "payment.verification_submitted"
	EventTypeVerificationReviewed  EventType = "payment.reviewed"
	EventTypeGuestMerged           EventType = "guest.merged"
)

// Event is the envelope written to the events topic.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OrderID       string            `json:"order_id,omitempty"`
	UserID        string            `json:"user_id"`
	Data          json.RawMessage   `json:"data"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes storefront events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logging.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.EventsTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.EventsTopic,
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publishPayload(ctx, EventTypeOrderCreated, order.ID, order.UserID, order)
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	payload := struct {
		Order          *models.Order      `json:"order"`
		PreviousStatus models.OrderStatus `json:"previous_status"`
		NewStatus      models.OrderStatus `json:"new_status"`
	}{
		Order:          order,
		PreviousStatus: previous,
		NewStatus:      order.OrderStatus,
	}
	return p.publishPayload(ctx, EventTypeOrderStatusChanged, order.ID, order.UserID, payload)
}

func (p *KafkaPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	payload := struct {
		Order  *models.Order `json:"order"`
		Reason string        `json:"reason"`
	}{
		Order:  order,
		Reason: reason,
	}
	return p.publishPayload(ctx, EventTypeOrderCancelled, order.ID, order.UserID, payload)
}

func (p *KafkaPublisher) PublishVerificationSubmitted(ctx context.Context, v *models.PaymentVerification, order *models.Order) error {
	return p.publishPayload(ctx, EventTypeVerificationSubmitted, order.ID, order.UserID, v)
}

func (p *KafkaPublisher) PublishVerificationReviewed(ctx context.Context, v *models.PaymentVerification, order *models.Order) error {
	payload := struct {
		Verification  *models.PaymentVerification `json:"verification"`
		OrderStatus   models.OrderStatus          `json:"order_status"`
		PaymentStatus models.PaymentStatus        `json:"payment_status"`
	}{
		Verification:  v,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
	}
	return p.publishPayload(ctx, EventTypeVerificationReviewed, order.ID, order.UserID, payload)
}

func (p *KafkaPublisher) PublishGuestMerged(ctx context.Context, userID string, result *models.MigrationResult) error {
	return p.publishPayload(ctx, EventTypeGuestMerged, "", userID, result)
}

func (p *KafkaPublisher) publishPayload(ctx context.Context, eventType EventType, orderID, userID string, payload interface{}) error {
	p.logger.Debug("Publishing event", logging.Fields{
		"event_type": eventType,
		"order_id":   orderID,
	})

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(ctx, eventType, orderID, userID, data))
}

func newEvent(ctx context.Context, eventType EventType, orderID, userID string, data []byte) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderID:       orderID,
		UserID:        userID,
		Data:          data,
		Metadata:      map[string]string{"source": "storefront-service"},
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.RequestIDFrom(ctx),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event *Event) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := event.OrderID
	if key == "" {
		key = event.UserID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NopPublisher discards events. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *models.Order) error { return nil }
func (NopPublisher) PublishOrderStatusChanged(context.Context, *models.Order, models.OrderStatus) error {
	return nil
}
func (NopPublisher) PublishOrderCancelled(context.Context, *models.Order, string) error { return nil }
func (NopPublisher) PublishVerificationSubmitted(context.Context, *models.PaymentVerification, *models.Order) error {
	return nil
}
func (NopPublisher) PublishVerificationReviewed(context.Context, *models.PaymentVerification, *models.Order) error {
	return nil
}
func (NopPublisher) PublishGuestMerged(context.Context, string, *models.MigrationResult) error {
	return nil
}
func (NopPublisher) Close() error { return nil }

// MockEventPublisher records events for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	Err    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) record(t EventType, orderID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, &Event{Type: t, OrderID: orderID, UserID: userID})
	return m.Err
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderCreated, order.ID, order.UserID)
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	return m.record(EventTypeOrderStatusChanged, order.ID, order.UserID)
}

func (m *MockEventPublisher) PublishOrderCancelled(ctx context.Context, order *models.Order, reason string) error {
	return m.record(EventTypeOrderCancelled, order.ID, order.UserID)
}

func (m *MockEventPublisher) PublishVerificationSubmitted(ctx context.Context, v *models.PaymentVerification, order *models.Order) error {
	return m.record(EventTypeVerificationSubmitted, order.ID, order.UserID)
}

func (m *MockEventPublisher) PublishVerificationReviewed(ctx context.Context, v *models.PaymentVerification, order *models.Order) error {
	return m.record(EventTypeVerificationReviewed, order.ID, order.UserID)
}

func (m *MockEventPublisher) PublishGuestMerged(ctx context.Context, userID string, result *models.MigrationResult) error {
	return m.record(EventTypeGuestMerged, "", userID)
}

func (m *MockEventPublisher) Close() error { return nil }

// Types returns the recorded event types in order.
func (m *MockEventPublisher) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}
