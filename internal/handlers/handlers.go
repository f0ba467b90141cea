package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// SessionIssuer hands out guest session tokens.
type SessionIssuer interface {
	NewSessionID() string
	TTL() time.Duration
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the business services the handlers call into.
type Services struct {
	Cart      *service.CartService
	Favorites *service.FavoritesService
	Auth      *service.AuthService
	Orders    *service.OrderService
	Payments  *service.PaymentService
}

// Handlers holds all HTTP handlers for the storefront service.
type Handlers struct {
	cart      *service.CartService
	favorites *service.FavoritesService
	auth      *service.AuthService
	orders    *service.OrderService
	payments  *service.PaymentService
	sessions  SessionIssuer
	tokens    *auth.TokenManager
	checks    map[string]Pinger
	logger    *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svcs Services, sessions SessionIssuer, tokens *auth.TokenManager, checks map[string]Pinger) *Handlers {
	return &Handlers{
		cart:      svcs.Cart,
		favorites: svcs.Favorites,
		auth:      svcs.Auth,
		orders:    svcs.Orders,
		payments:  svcs.Payments,
		sessions:  sessions,
		tokens:    tokens,
		checks:    checks,
		logger:    logging.New("handlers"),
	}
}

// respond writes the success envelope merged with payload.
func respond(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
		"code":    errors.CodeValidation,
	})
}

// handleError maps a service error onto the failure envelope. Causes are
// logged, never returned.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status := errors.HTTPStatus(err)
	code := errors.CodeOf(err)
	if code == "" {
		code = "internal_error"
	}

	if status >= http.StatusInternalServerError {
		logging.New("handlers").Error("Request failed", logging.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": errors.PublicMessage(err),
		"code":    code,
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
