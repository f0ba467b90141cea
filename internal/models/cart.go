package models

import "github.com/shopspring/decimal"

// CartLine is one (owner, product) entry as held by either store.
type CartLine struct {
	ProductID string `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// PricedItem is a cart or favorites line joined with its live product.
type PricedItem struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Discount      decimal.Decimal `json:"discount"`
	Quantity      int             `json:"quantity,omitempty"`
	LineTotal     decimal.Decimal `json:"line_total,omitempty"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category"`
	Sizes         []string        `json:"sizes"`
	Image         string          `json:"image"`
}

type CartSummary struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

type Cart struct {
	Items   []PricedItem `json:"items"`
	Summary CartSummary  `json:"summary"`
}

type FavoritesList struct {
	Items []PricedItem `json:"items"`
	Count int          `json:"count"`
}

// MigrationResult reports the outcome of moving guest state to a user.
type MigrationResult struct {
	CartTransferred      bool   `json:"cart_transferred"`
	FavoritesTransferred bool   `json:"favorites_transferred"`
	CartItemsMigrated    int    `json:"cart_items_migrated"`
	FavoritesMigrated    int    `json:"favorites_migrated"`
	SkippedProducts      int    `json:"skipped_products"`
	Message              string `json:"message"`
}
