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

// OrderService handles order business logic.
type OrderService struct {
	ledger   TxRunner
	catalog  *Catalog
	events   EventPublisher
	notifier Notifier
	audit    *auditTrail
	logger   *logging.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(ledger TxRunner, catalog *Catalog, events EventPublisher, notifier Notifier) *OrderService {
	logger := logging.New("order-service")
	return &OrderService{
		ledger:   ledger,
		catalog:  catalog,
		events:   events,
		notifier: notifier,
		audit:    &auditTrail{ledger: ledger, logger: logger, now: utcNow},
		logger:   logger,
		now:      utcNow,
	}
}

// CreateFromCart takes the user's cart lines and snapshots them into a
// pending order in one transaction. Taking the lines deletes them, so a
// concurrent checkout of the same cart finds it empty.
func (s *OrderService) CreateFromCart(ctx context.Context, userID, shippingAddress string) (*models.Order, error) {
	s.logger.Info("Creating order from cart", logging.Fields{"user_id": userID})

	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		shippingAddress = models.DefaultShippingAddress
	}

	var order *models.Order
	err := s.ledger.InTx(ctx, func(q *repository.Queries) error {
		lines, err := q.TakeCartLines(ctx, userID)
		if err != nil {
			return err
		}

		products, err := q.GetProducts(ctx, productIDs(lines))
		if err != nil {
			return err
		}

		cart := s.catalog.priceCart(lines, products)
		if len(cart.Items) == 0 {
			return errors.ErrEmptyCart
		}

		// TODO: decrement products.stock here; stock is only checked when
		// items are added to the cart.
		now := s.now()
		id := uuid.New().String()
		order = &models.Order{
			ID:              id,
			OrderNumber:     models.OrderNumber(id, now),
			UserID:          userID,
			Items:           snapshotLines(cart.Items),
			Subtotal:        cart.Summary.Subtotal,
			Shipping:        cart.Summary.Shipping,
			Total:           cart.Summary.Total,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			ShippingAddress: shippingAddress,
			OrderedAt:       now,
			UpdatedAt:       now,
		}

		return q.InsertOrder(ctx, order)
	})
	if err != nil {
		if !errors.Is(err, errors.ErrEmptyCart) {
			s.logger.Error("Failed to create order", logging.Fields{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.audit.record(ctx, order.ID, models.OrderStatusPending, "Order placed", userID)

	// Log but don't fail
	runNonCritical(ctx, s.logger, "publish_order_created", logging.Fields{"order_id": order.ID}, func(ctx context.Context) error {
		return s.events.PublishOrderCreated(ctx, order)
	})

	go s.sendOrderConfirmationNotification(context.Background(), order)

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	})

	return order, nil
}

// GetOrder returns one of the user's orders with its payment claim and
// status history.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.OrderDetails, error) {
	q := s.ledger.Queries()

	order, err := q.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{Order: order}

	v, err := q.GetVerificationByOrder(ctx, orderID)
	switch {
	case err == nil:
		details.Verification = v
	case !errors.Is(err, errors.ErrNotFound):
		return nil, err
	}

	history, err := q.ListStatusChanges(ctx, orderID)
	if err != nil {
		return nil, err
	}
	details.History = history

	return details, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error) {
	page, limit = normalizePage(page, limit)

	s.logger.Debug("Listing user orders", logging.Fields{
		"user_id": userID,
		"page":    page,
		"limit":   limit,
	})

	q := s.ledger.Queries()
	orders, err := q.ListUserOrders(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := q.CountUserOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.OrderPage{Orders: orders, Page: page, Limit: limit, Total: total}, nil
}

// CancelOrder cancels a pending or confirmed order owned by userID.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID, reason string) (*models.Order, error) {
	s.logger.Info("Cancelling order", logging.Fields{
		"order_id": orderID,
		"reason":   reason,
	})

	q := s.ledger.Queries()
	order, err := q.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanCancel() {
		return nil, errors.InvalidTransition(string(order.OrderStatus), string(models.OrderStatusCancelled))
	}

	previous := order.OrderStatus
	changed, err := q.TransitionOrder(ctx, repository.OrderTransition{
		OrderID: orderID,
		From:    []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed},
		To:      models.OrderStatusCancelled,
		At:      s.now(),
	})
	if err != nil {
		return nil, err
	}

	order, err = q.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with a review or fulfilment update.
		return nil, errors.InvalidTransition(string(order.OrderStatus), string(models.OrderStatusCancelled))
	}

	if reason == "" {
		reason = "Cancelled by customer"
	}
	metrics.OrderTransitions.WithLabelValues(string(models.OrderStatusCancelled)).Inc()
	s.audit.record(ctx, orderID, models.OrderStatusCancelled, reason, userID)

	runNonCritical(ctx, s.logger, "publish_order_cancelled", logging.Fields{"order_id": orderID}, func(ctx context.Context) error {
		return s.events.PublishOrderCancelled(ctx, order, reason)
	})

	go s.sendCancellationNotification(context.Background(), order, previous)

	return order, nil
}

// AdvanceOrderStatus moves an order along the fulfilment path on behalf of
// a reviewer. Payment-driven transitions go through PaymentService instead.
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, reviewerID, orderID string, to models.OrderStatus, notes string) (*models.Order, error) {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id":    orderID,
		"new_status":  to,
		"reviewer_id": reviewerID,
	})

	if !to.Valid() {
		return nil, errors.NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}

	q := s.ledger.Queries()
	order, err := q.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.OrderStatus
	if !isValidStatusTransition(previous, to) {
		return nil, errors.InvalidTransition(string(previous), string(to))
	}

	changed, err := q.TransitionOrder(ctx, repository.OrderTransition{
		OrderID: orderID,
		From:    []models.OrderStatus{previous},
		To:      to,
		At:      s.now(),
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, errors.InvalidTransition(string(previous), string(to))
	}

	order, err = q.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	s.audit.record(ctx, orderID, to, notes, reviewerID)

	runNonCritical(ctx, s.logger, "publish_order_status_changed", logging.Fields{"order_id": orderID}, func(ctx context.Context) error {
		return s.events.PublishOrderStatusChanged(ctx, order, previous)
	})

	go s.sendStatusChangeNotification(context.Background(), order, previous)

	return order, nil
}

// isValidStatusTransition covers reviewer-driven fulfilment moves only.
func isValidStatusTransition(from, to models.OrderStatus) bool {
	validTransitions := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:    {models.OrderStatusCancelled},
		models.OrderStatusConfirmed:  {models.OrderStatusCancelled},
		models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
		models.OrderStatusShipped:    {models.OrderStatusDelivered},
		models.OrderStatusDelivered:  {},
		models.OrderStatusCancelled:  {},
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

func (s *OrderService) sendOrderConfirmationNotification(ctx context.Context, order *models.Order) {
	n := &models.Notification{
		Type:    models.NotificationOrderConfirmation,
		UserID:  order.UserID,
		Subject: fmt.Sprintf("Order %s received", order.OrderNumber),
		Body:    fmt.Sprintf("We received your order of %d item(s) totalling %s.", len(order.Items), order.Total.StringFixed(2)),
		Metadata: map[string]string{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		},
	}
	s.notify(ctx, n)
}

func (s *OrderService) sendCancellationNotification(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	n := &models.Notification{
		Type:    models.NotificationOrderCancelled,
		UserID:  order.UserID,
		Subject: fmt.Sprintf("Order %s cancelled", order.OrderNumber),
		Body:    fmt.Sprintf("Your order was cancelled while %s.", previous),
		Metadata: map[string]string{
			"order_id":        order.ID,
			"previous_status": string(previous),
		},
	}
	s.notify(ctx, n)
}

func (s *OrderService) sendStatusChangeNotification(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	// Only notify for customer-visible milestones
	if order.OrderStatus != models.OrderStatusShipped &&
		order.OrderStatus != models.OrderStatusDelivered &&
		order.OrderStatus != models.OrderStatusCancelled {
		return
	}

	n := &models.Notification{
		Type:    models.NotificationOrderStatus,
		UserID:  order.UserID,
		Subject: fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.OrderStatus),
		Body:    fmt.Sprintf("Your order moved from %s to %s.", previous, order.OrderStatus),
		Metadata: map[string]string{
			"order_id": order.ID,
			"status":   string(order.OrderStatus),
		},
	}
	s.notify(ctx, n)
}

func (s *OrderService) notify(ctx context.Context, n *models.Notification) {
	runNonCritical(ctx, s.logger, "notification", logging.Fields{"type": n.Type, "user_id": n.UserID}, func(ctx context.Context) error {
		return s.notifier.Send(ctx, n)
	})
}
