package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a catalog entry as stored in the ledger.
type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Discount  decimal.Decimal `db:"discount" json:"discount"`
	Stock     int             `db:"stock" json:"stock"`
	Category  string          `db:"category" json:"category"`
	Sizes     StringList      `db:"sizes" json:"sizes"`
	Image     string          `db:"image" json:"image"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EffectivePrice applies the discount percentage. The result never goes
// below zero even for out-of-range discounts.
func (p *Product) EffectivePrice() decimal.Decimal {
	if !p.Discount.IsPositive() {
		return p.Price
	}
	factor := decimal.NewFromInt(1).Sub(p.Discount.Div(hundred))
	price := p.Price.Mul(factor)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// StringList is a JSON-encoded text column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*s = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}
