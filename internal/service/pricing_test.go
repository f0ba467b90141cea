package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func TestCalculateOrderTotal(t *testing.T) {
	half := decimal.RequireFromString("0.005")
	totals := []decimal.Decimal{half, half, half}

	got := CalculateOrderTotal(totals, decimal.Zero)

	// Per-line rounding would give 0.03; rounding the sum gives 0.02.
	assert.Equal(t, "0.02", got.Subtotal.StringFixed(2))
	assert.True(t, got.Total.Equal(got.Subtotal))
}

func TestCatalog_ImageURL(t *testing.T) {
	c := NewCatalog(config.CatalogConfig{MediaBaseURL: "https://cdn.example.com/media/", PlaceholderImage: "/static/none.png"})

	tests := map[string]string{
		"":                          "/static/none.png",
		"tee.jpg":                   "https://cdn.example.com/media/tee.jpg",
		"/uploads/tee.jpg":          "/uploads/tee.jpg",
		"http://img.example/a.png":  "http://img.example/a.png",
		"https://img.example/b.png": "https://img.example/b.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, c.ImageURL(in), in)
	}
}

func TestCatalog_PriceCartSkipsMissingProducts(t *testing.T) {
	c := NewCatalog(config.CatalogConfig{})
	products := map[string]*models.Product{
		"P2": {ID: "P2", Price: decimal.NewFromInt(50), Discount: decimal.NewFromInt(20)},
	}

	cart := c.priceCart([]models.CartLine{
		{ProductID: "P1", Quantity: 1},
		{ProductID: "P2", Quantity: 2},
	}, products)

	assert.Len(t, cart.Items, 1)
	assert.True(t, decimal.NewFromInt(40).Equal(cart.Items[0].Price))
	assert.True(t, decimal.NewFromInt(50).Equal(cart.Items[0].OriginalPrice))
	assert.Equal(t, "80.00", cart.Summary.Total.StringFixed(2))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("guest_3f2a9c"))
	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("has space"))
}
