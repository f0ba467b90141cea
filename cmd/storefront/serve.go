package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func newServeCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), conf())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New("storefront")

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", logging.Fields{"error": err.Error()})
		return err
	}
	ledger := repository.NewLedger(db, logging.New("ledger"))
	defer ledger.Close()

	sessions := repository.NewRedisSessionStore(repository.NewRedisClient(cfg.Redis), cfg.Redis.SessionTTL, logging.New("session-store"))
	defer sessions.Close()

	var publisher eventPublisher = events.NopPublisher{}
	if cfg.Features.EnableEvents {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logging.New("event-publisher"))
	}
	defer publisher.Close()

	var notifier service.Notifier = clients.NopNotifier{}
	if cfg.Features.EnableNotifications {
		notifier = clients.NewHTTPNotificationClient(cfg.NotificationService, logging.New("notification-client"))
	}

	stores := repository.NewStores(sessions, ledger)
	catalog := service.NewCatalog(cfg.Catalog)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	merger := service.NewMergeService(sessions, ledger, publisher)
	orderService := service.NewOrderService(ledger, catalog, publisher, notifier)
	paymentService := service.NewPaymentService(ledger, publisher, notifier)

	h := handlers.NewHandlers(handlers.Services{
		Cart:      service.NewCartService(stores, ledger.Queries(), catalog),
		Favorites: service.NewFavoritesService(stores, ledger.Queries(), catalog),
		Auth:      service.NewAuthService(ledger, tokens, merger, cfg.Auth.BcryptCost),
		Orders:    orderService,
		Payments:  paymentService,
	}, sessions, tokens, map[string]handlers.Pinger{
		"ledger":   ledger,
		"sessions": sessions,
	})

	srv := server.New(h, cfg)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                   cfg.Server.Port,
			"enable_events":          cfg.Features.EnableEvents,
			"enable_notifications":   cfg.Features.EnableNotifications,
			"enable_review_consumer": cfg.Features.EnableReviewConsumer,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumer *events.ReviewConsumer
	if cfg.Features.EnableReviewConsumer {
		consumer = events.NewReviewConsumer(cfg.Kafka, paymentService, logging.New("review-consumer"))
		go func() {
			if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
				logger.Error("Review consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("Server failed to start", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Server exited")
	return nil
}
