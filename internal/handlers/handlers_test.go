package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "storefront-service", resp["service"])
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{name: "all up", checks: map[string]Pinger{"ledger": pinger{}}, want: http.StatusOK},
		{name: "ledger down", checks: map[string]Pinger{"ledger": pinger{err: stderrors.New("dial tcp: refused")}}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(Services{}, nil, nil, tt.checks)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			h.Ready(c)

			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "refused")
		})
	}
}

func TestLive(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Live(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{name: "not found", err: errors.NotFound("order"), wantStatus: http.StatusNotFound, wantCode: "not_found", wantMessage: "order not found"},
		{name: "validation", err: errors.NewValidationError("quantity", "must be positive"), wantStatus: http.StatusBadRequest, wantCode: "validation_error", wantMessage: "quantity: must be positive"},
		{name: "duplicate", err: errors.ErrDuplicateSubmission, wantStatus: http.StatusConflict, wantCode: "duplicate_submission"},
		{name: "empty cart", err: errors.ErrEmptyCart, wantStatus: http.StatusBadRequest, wantCode: "empty_cart"},
		{name: "storage", err: errors.Unavailable("get order", stderrors.New("pq: connection reset")), wantStatus: http.StatusServiceUnavailable, wantCode: "dependency_unavailable"},
		{name: "foreign", err: stderrors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error", wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.wantCode, resp["code"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp["message"])
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func identityRouter(h *Handlers, guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", h.ResolveIdentity(), guard, func(c *gin.Context) {
		body := gin.H{}
		if id, ok := identityFrom(c); ok {
			body["owner"] = id.Owner()
			body["guest"] = id.IsGuest()
		}
		if rev, ok := reviewerFrom(c); ok {
			body["reviewer"] = rev.ReviewerID
		}
		c.JSON(http.StatusOK, body)
	})
	return r
}

func TestResolveIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenManager("secret", time.Hour)
	userToken, _, err := tokens.IssueUserToken("u1", "u1@example.com")
	require.NoError(t, err)
	reviewerToken, _, err := tokens.IssueReviewerToken("rev-1", time.Hour)
	require.NoError(t, err)

	h := NewHandlers(Services{}, nil, tokens, nil)
	noop := func(c *gin.Context) { c.Next() }

	tests := []struct {
		name       string
		headers    map[string]string
		guard      gin.HandlerFunc
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "guest",
			headers:    map[string]string{HeaderSessionID: "guest_abc"},
			guard:      RequireShopper(),
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"owner": "guest_abc", "guest": true},
		},
		{
			name:       "token wins over session",
			headers:    map[string]string{HeaderSessionID: "guest_abc", "Authorization": "Bearer " + userToken},
			guard:      RequireUser(),
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"owner": "u1", "guest": false},
		},
		{
			name:       "guest cannot act as user",
			headers:    map[string]string{HeaderSessionID: "guest_abc"},
			guard:      RequireUser(),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "anonymous shopper",
			guard:      RequireShopper(),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "anonymous allowed without guard",
			guard:      noop,
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{},
		},
		{
			name:       "bad token",
			headers:    map[string]string{"Authorization": "Bearer nope"},
			guard:      noop,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad session id",
			headers:    map[string]string{HeaderSessionID: "has spaces"},
			guard:      noop,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "reviewer",
			headers:    map[string]string{"Authorization": "Bearer " + reviewerToken},
			guard:      RequireReviewer(),
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"reviewer": "rev-1"},
		},
		{
			name:       "user is not a reviewer",
			headers:    map[string]string{"Authorization": "Bearer " + userToken},
			guard:      RequireReviewer(),
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identityRouter(h, tt.guard)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, decode(t, w))
			}
		})
	}
}

func TestIdentityFromTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Set(identityKey, models.GuestIdentity{SessionID: "guest_1"})
	_, ok := userFrom(c)
	assert.False(t, ok)

	id, ok := identityFrom(c)
	require.True(t, ok)
	assert.True(t, id.IsGuest())
}
