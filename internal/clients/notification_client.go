package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// HTTPNotificationClient posts notifications to the notification service.
type HTTPNotificationClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *logging.Logger
}

func NewHTTPNotificationClient(cfg config.ServiceConfig, logger *logging.Logger) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

const notificationSource = "storefront-service"

// Send posts one notification to /api/v2/notifications/{type}. Any 2xx
// status is success; the response body is ignored.
func (c *HTTPNotificationClient) Send(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", n.Type, err)
	}

	endpoint := c.baseURL + "/api/v2/notifications/" + url.PathEscape(string(n.Type))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s notification: %w", n.Type, err)
	}
	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Unavailable("send "+string(n.Type)+" notification", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Notification rejected", logging.Fields{
			"user_id": n.UserID,
			"type":    n.Type,
			"status":  resp.StatusCode,
		})
		return errors.Unavailable("send "+string(n.Type)+" notification", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func (c *HTTPNotificationClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Notification-Source", notificationSource)

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := middleware.RequestIDFrom(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}
}

// NopNotifier drops every notification. Used when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, n *models.Notification) error { return nil }

// MockNotificationClient records notifications for tests.
type MockNotificationClient struct {
	mu            sync.Mutex
	notifications []*models.Notification
	Err           error
}

func NewMockNotificationClient() *MockNotificationClient {
	return &MockNotificationClient{}
}

func (m *MockNotificationClient) Send(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return m.Err
}

func (m *MockNotificationClient) Sent() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
