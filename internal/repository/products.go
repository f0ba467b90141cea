package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const productColumns = `id, name, price, discount, stock, category, sizes, image, created_at`

// GetProduct reads one catalog entry. Missing products yield errors.ErrNotFound.
func (q *Queries) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := q.get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		return nil, q.fail("get product", err, logging.Fields{"product_id": id})
	}
	return &p, nil
}

// GetProducts reads the catalog entries that still exist among ids.
func (q *Queries) GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	if err := q.selectAll(ctx, &products, query, args...); err != nil {
		return nil, q.fail("get products", err, logging.Fields{"count": len(ids)})
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// SaveProduct inserts or replaces a catalog entry.
func (q *Queries) SaveProduct(ctx context.Context, p *models.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := q.exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			discount = excluded.discount,
			stock = excluded.stock,
			category = excluded.category,
			sizes = excluded.sizes,
			image = excluded.image`,
		p.ID, p.Name, p.Price, p.Discount, p.Stock, p.Category, p.Sizes, p.Image, p.CreatedAt,
	)
	if err != nil {
		return q.fail("save product", err, logging.Fields{"product_id": p.ID})
	}
	return nil
}

// DeleteProduct removes a catalog entry; user cart and favorite rows go with it.
func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	if _, err := q.exec(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return q.fail("delete product", err, logging.Fields{"product_id": id})
	}
	return nil
}
