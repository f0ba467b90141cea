package service

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// MergeService moves a guest session's cart and favorites into a user's
// durable rows. The two parts run as independent transactions.
type MergeService struct {
	sessions GuestSessions
	ledger   TxRunner
	events   EventPublisher
	logger   *logging.Logger
	now      func() time.Time
}

func NewMergeService(sessions GuestSessions, ledger TxRunner, events EventPublisher) *MergeService {
	return &MergeService{
		sessions: sessions,
		ledger:   ledger,
		events:   events,
		logger:   logging.New("merge-service"),
		now:      utcNow,
	}
}

// TransferAll merges the guest cart additively and the guest favorites as a
// set union. It never fails; the outcome of each part is reported in the
// result. Each part first claims its guest key, so concurrent merges of one
// session move the data once. A part whose ledger write fails puts its
// claimed data back for a retry.
func (s *MergeService) TransferAll(ctx context.Context, sessionID, userID string) *models.MigrationResult {
	fields := logging.Fields{"session_id": sessionID, "user_id": userID}
	s.logger.Info("Transferring guest state", fields)

	result := &models.MigrationResult{}

	cartMigrated, cartSkipped, err := s.transferCart(ctx, sessionID, userID)
	if err != nil {
		s.logger.Error("Guest cart transfer failed", logging.Fields{
			"session_id": sessionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
		metrics.GuestMerges.WithLabelValues("cart", "failure").Inc()
	} else {
		result.CartTransferred = true
		result.CartItemsMigrated = cartMigrated
		result.SkippedProducts += cartSkipped
		metrics.GuestMerges.WithLabelValues("cart", "success").Inc()
	}

	favMigrated, favSkipped, err := s.transferFavorites(ctx, sessionID, userID)
	if err != nil {
		s.logger.Error("Guest favorites transfer failed", logging.Fields{
			"session_id": sessionID,
			"user_id":    userID,
			"error":      err.Error(),
		})
		metrics.GuestMerges.WithLabelValues("favorites", "failure").Inc()
	} else {
		result.FavoritesTransferred = true
		result.FavoritesMigrated = favMigrated
		result.SkippedProducts += favSkipped
		metrics.GuestMerges.WithLabelValues("favorites", "success").Inc()
	}

	result.Message = migrationMessage(result)

	runNonCritical(ctx, s.logger, "publish_guest_merged", fields, func(ctx context.Context) error {
		return s.events.PublishGuestMerged(ctx, userID, result)
	})

	s.logger.Info("Guest state transfer finished", logging.Fields{
		"user_id":               userID,
		"cart_transferred":      result.CartTransferred,
		"favorites_transferred": result.FavoritesTransferred,
		"skipped_products":      result.SkippedProducts,
	})

	return result
}

func (s *MergeService) transferCart(ctx context.Context, sessionID, userID string) (int, int, error) {
	lines, err := s.sessions.ClaimCart(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	if len(lines) == 0 {
		return 0, 0, nil
	}

	migrated, skipped := 0, 0
	err = s.ledger.InTx(ctx, func(q *repository.Queries) error {
		migrated, skipped = 0, 0

		products, err := q.GetProducts(ctx, productIDs(lines))
		if err != nil {
			return err
		}

		at := s.now()
		for _, line := range lines {
			if _, ok := products[line.ProductID]; !ok {
				skipped++
				continue
			}
			if err := q.AddCartQuantity(ctx, userID, line.ProductID, line.Quantity, at); err != nil {
				return err
			}
			migrated++
		}
		return nil
	})
	if err != nil {
		runNonCritical(ctx, s.logger, "restore_guest_cart", logging.Fields{"session_id": sessionID}, func(ctx context.Context) error {
			return s.sessions.RestoreCart(ctx, sessionID, lines)
		})
		return 0, 0, err
	}

	return migrated, skipped, nil
}

func (s *MergeService) transferFavorites(ctx context.Context, sessionID, userID string) (int, int, error) {
	ids, err := s.sessions.ClaimFavorites(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	added, skipped := 0, 0
	err = s.ledger.InTx(ctx, func(q *repository.Queries) error {
		added, skipped = 0, 0

		products, err := q.GetProducts(ctx, ids)
		if err != nil {
			return err
		}

		at := s.now()
		for _, pid := range ids {
			if _, ok := products[pid]; !ok {
				skipped++
				continue
			}
			inserted, err := q.AddFavorite(ctx, userID, pid, at)
			if err != nil {
				return err
			}
			if inserted {
				added++
			}
		}
		return nil
	})
	if err != nil {
		runNonCritical(ctx, s.logger, "restore_guest_favorites", logging.Fields{"session_id": sessionID}, func(ctx context.Context) error {
			return s.sessions.RestoreFavorites(ctx, sessionID, ids)
		})
		return 0, 0, err
	}

	return added, skipped, nil
}

func migrationMessage(r *models.MigrationResult) string {
	switch {
	case r.CartTransferred && r.FavoritesTransferred:
		return "Guest cart and favorites transferred"
	case r.CartTransferred:
		return "Guest cart transferred; favorites transfer failed"
	case r.FavoritesTransferred:
		return "Guest favorites transferred; cart transfer failed"
	default:
		return "Guest data transfer failed"
	}
}
