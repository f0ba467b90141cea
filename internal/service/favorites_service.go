package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

type FavoritesService struct {
	stores   StoreResolver
	products ProductReader
	catalog  *Catalog
	logger   *logging.Logger
}

func NewFavoritesService(stores StoreResolver, products ProductReader, catalog *Catalog) *FavoritesService {
	return &FavoritesService{
		stores:   stores,
		products: products,
		catalog:  catalog,
		logger:   logging.New("favorites-service"),
	}
}

// AddFavorite adds productID to the owner's favorites. Adding twice is a no-op.
func (s *FavoritesService) AddFavorite(ctx context.Context, id models.Identity, productID string) error {
	if err := validateProductID(productID); err != nil {
		return err
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.NotFound("product")
		}
		return err
	}

	if err := s.stores.Favorites(id).Add(ctx, productID); err != nil {
		s.logger.Error("Failed to add favorite", logging.Fields{
			"owner":      id.Owner(),
			"product_id": productID,
			"error":      err.Error(),
		})
		return err
	}

	metrics.FavoriteOperations.WithLabelValues("add", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

func (s *FavoritesService) RemoveFavorite(ctx context.Context, id models.Identity, productID string) error {
	if err := validateProductID(productID); err != nil {
		return err
	}
	if err := s.stores.Favorites(id).Remove(ctx, productID); err != nil {
		return err
	}

	metrics.FavoriteOperations.WithLabelValues("remove", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

func (s *FavoritesService) IsFavorite(ctx context.Context, id models.Identity, productID string) (bool, error) {
	if err := validateProductID(productID); err != nil {
		return false, err
	}
	return s.stores.Favorites(id).Contains(ctx, productID)
}

// ListFavorites returns favorites joined with live products. Favorites whose
// product no longer exists are omitted.
func (s *FavoritesService) ListFavorites(ctx context.Context, id models.Identity) (*models.FavoritesList, error) {
	ids, err := s.stores.Favorites(id).Members(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.PricedItem, 0, len(ids))
	for _, pid := range ids {
		if p, ok := products[pid]; ok {
			items = append(items, s.catalog.priceItem(p, 0))
		}
	}

	return &models.FavoritesList{Items: items, Count: len(items)}, nil
}

func (s *FavoritesService) CountFavorites(ctx context.Context, id models.Identity) (int, error) {
	return s.stores.Favorites(id).Count(ctx)
}
