package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// CartService handles cart business logic for guests and users alike.
type CartService struct {
	stores   StoreResolver
	products ProductReader
	catalog  *Catalog
	logger   *logging.Logger
}

// NewCartService creates a new cart service.
func NewCartService(stores StoreResolver, products ProductReader, catalog *Catalog) *CartService {
	return &CartService{
		stores:   stores,
		products: products,
		catalog:  catalog,
		logger:   logging.New("cart-service"),
	}
}

// AddItem increments the line for productID. The requested quantity alone
// is checked against stock; the existing line is not.
func (s *CartService) AddItem(ctx context.Context, id models.Identity, productID string, quantity int) error {
	if err := validateProductID(productID); err != nil {
		return err
	}
	if quantity < 1 {
		return errors.NewValidationError("quantity", "quantity must be at least 1")
	}

	product, err := s.lookup(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return errors.InsufficientStock(productID, quantity, product.Stock)
	}

	if err := s.stores.Cart(id).Add(ctx, productID, quantity); err != nil {
		s.logger.Error("Failed to add cart item", logging.Fields{
			"owner":      id.Owner(),
			"product_id": productID,
			"error":      err.Error(),
		})
		return err
	}

	metrics.CartOperations.WithLabelValues("add", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

// SetQuantity overwrites the line quantity. A quantity of zero or less
// removes the line.
func (s *CartService) SetQuantity(ctx context.Context, id models.Identity, productID string, quantity int) error {
	if err := validateProductID(productID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, id, productID)
	}

	if _, err := s.lookup(ctx, productID); err != nil {
		return err
	}

	if err := s.stores.Cart(id).Set(ctx, productID, quantity); err != nil {
		return err
	}

	metrics.CartOperations.WithLabelValues("set", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

// RemoveItem deletes the line. Removing an absent line succeeds.
func (s *CartService) RemoveItem(ctx context.Context, id models.Identity, productID string) error {
	if err := validateProductID(productID); err != nil {
		return err
	}
	if err := s.stores.Cart(id).Remove(ctx, productID); err != nil {
		return err
	}

	metrics.CartOperations.WithLabelValues("remove", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

// GetCart returns the cart priced against the live catalog.
func (s *CartService) GetCart(ctx context.Context, id models.Identity) (*models.Cart, error) {
	lines, err := s.stores.Cart(id).Lines(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.GetProducts(ctx, productIDs(lines))
	if err != nil {
		return nil, err
	}

	return s.catalog.priceCart(lines, products), nil
}

func (s *CartService) ClearCart(ctx context.Context, id models.Identity) error {
	if err := s.stores.Cart(id).Clear(ctx); err != nil {
		return err
	}

	metrics.CartOperations.WithLabelValues("clear", metrics.StoreLabel(id.IsGuest())).Inc()
	return nil
}

func (s *CartService) lookup(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.NotFound("product")
	}
	return product, err
}
