package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
)

type Server struct {
	config *config.Config
	http   *http.Server
	logger *logging.Logger
}

func New(h *handlers.Handlers, cfg *config.Config) *Server {
	gin.SetMode(cfg.Server.Mode)
	logger := logging.New("server")

	return &Server{
		config: cfg,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      NewRouter(h, logger),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// NewRouter wires every route onto a fresh engine.
func NewRouter(h *handlers.Handlers, logger *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger), metrics.GinMiddleware())

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1", h.ResolveIdentity())
	{
		v1.POST("/guest/session", h.CreateGuestSession)

		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		shopper := v1.Group("", handlers.RequireShopper())
		shopper.POST("/cart", h.AddToCart)
		shopper.GET("/cart", h.GetCart)
		shopper.PUT("/cart", h.UpdateCartQuantity)
		shopper.DELETE("/cart", h.ClearCart)
		shopper.DELETE("/cart/:productId", h.RemoveCartItem)

		shopper.POST("/favorites", h.AddFavorite)
		shopper.GET("/favorites", h.ListFavorites)
		shopper.GET("/favorites/:productId", h.CheckFavorite)
		shopper.DELETE("/favorites/:productId", h.RemoveFavorite)

		user := v1.Group("", handlers.RequireUser())
		user.POST("/orders", h.CreateOrder)
		user.GET("/orders", h.ListOrders)
		user.GET("/orders/:id", h.GetOrder)
		user.PUT("/orders/:id/cancel", h.CancelOrder)
		user.POST("/payments/verifications", h.SubmitPaymentVerification)

		admin := v1.Group("/admin", handlers.RequireReviewer())
		admin.GET("/payments/verifications", h.ListVerifications)
		admin.PUT("/payments/verifications/:id", h.ReviewVerification)
		admin.PUT("/orders/:id/status", h.AdvanceOrderStatus)
	}

	return router
}

func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.http.Addr})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
