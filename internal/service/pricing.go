package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// OrderTotal represents the pricing breakdown for a cart or order.
type OrderTotal struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateOrderTotal rounds the summed line totals half-up to cents.
// Rounding happens once here, never per line.
func CalculateOrderTotal(lineTotals []decimal.Decimal, shipping decimal.Decimal) OrderTotal {
	sum := decimal.Zero
	for _, lt := range lineTotals {
		sum = sum.Add(lt)
	}
	subtotal := sum.Round(2)
	shipping = shipping.Round(2)
	return OrderTotal{Subtotal: subtotal, Shipping: shipping, Total: subtotal.Add(shipping)}
}

// Catalog presents products to clients.
type Catalog struct {
	mediaBaseURL string
	placeholder  string
}

func NewCatalog(cfg config.CatalogConfig) *Catalog {
	return &Catalog{
		mediaBaseURL: strings.TrimRight(cfg.MediaBaseURL, "/"),
		placeholder:  cfg.PlaceholderImage,
	}
}

// ImageURL resolves a stored image reference to a URL clients can load.
func (c *Catalog) ImageURL(image string) string {
	if c == nil {
		return image
	}
	switch {
	case image == "":
		return c.placeholder
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"), strings.HasPrefix(image, "/"):
		return image
	default:
		return c.mediaBaseURL + "/" + image
	}
}

func (c *Catalog) priceItem(p *models.Product, quantity int) models.PricedItem {
	price := p.EffectivePrice()
	item := models.PricedItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         price,
		OriginalPrice: p.Price,
		Discount:      p.Discount,
		Stock:         p.Stock,
		Category:      p.Category,
		Sizes:         []string(p.Sizes),
		Image:         c.ImageURL(p.Image),
	}
	if quantity > 0 {
		item.Quantity = quantity
		item.LineTotal = price.Mul(decimal.NewFromInt(int64(quantity)))
	}
	return item
}

// priceCart joins lines with live products. Lines whose product no longer
// exists are dropped.
func (c *Catalog) priceCart(lines []models.CartLine, products map[string]*models.Product) *models.Cart {
	items := make([]models.PricedItem, 0, len(lines))
	totals := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			continue
		}
		item := c.priceItem(p, line.Quantity)
		items = append(items, item)
		totals = append(totals, item.LineTotal)
	}

	t := CalculateOrderTotal(totals, decimal.Zero)
	return &models.Cart{
		Items: items,
		Summary: models.CartSummary{
			ItemCount: len(items),
			Subtotal:  t.Subtotal,
			Shipping:  t.Shipping,
			Total:     t.Total,
		},
	}
}

// snapshotLines copies priced cart items into immutable order lines.
func snapshotLines(items []models.PricedItem) models.OrderLines {
	lines := make(models.OrderLines, 0, len(items))
	for _, it := range items {
		lines = append(lines, models.OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
			Image:     it.Image,
		})
	}
	return lines
}

func productIDs(lines []models.CartLine) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}
