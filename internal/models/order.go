package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// DefaultShippingAddress is stored when the customer has not given one yet.
const DefaultShippingAddress = "Address to be provided"

// Order is an immutable snapshot of a cart plus its mutable status fields.
type Order struct {
	ID              string          `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	UserID          string          `db:"user_id" json:"user_id"`
	Items           OrderLines      `db:"items" json:"items"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
	Shipping        decimal.Decimal `db:"shipping" json:"shipping"`
	Total           decimal.Decimal `db:"total" json:"total"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"payment_status"`
	OrderStatus     OrderStatus     `db:"order_status" json:"order_status"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	OrderedAt       time.Time       `db:"ordered_at" json:"ordered_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CanCancel reports whether the customer may still cancel.
func (o *Order) CanCancel() bool {
	return o.OrderStatus == OrderStatusPending || o.OrderStatus == OrderStatusConfirmed
}

// OrderLine is copied from the cart at materialization and never re-derived.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Image     string          `json:"image,omitempty"`
}

// OrderLines is stored as a JSON text column.
type OrderLines []OrderLine

func (l OrderLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]OrderLine(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *OrderLines) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = OrderLines{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("models: cannot scan %T into OrderLines", src)
	}
	var out []OrderLine
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// orderNumberSuffixLen is the number of id hex digits kept in an order
// number. 16 digits of a v4 uuid carry 60 random bits per day.
const orderNumberSuffixLen = 16

// OrderNumber derives the customer-facing number from id and creation time.
func OrderNumber(id string, at time.Time) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > orderNumberSuffixLen {
		short = short[:orderNumberSuffixLen]
	}
	return "ORD-" + at.UTC().Format("20060102") + "-" + strings.ToUpper(short)
}

// OrderStatusChange is one row of the order audit trail.
type OrderStatusChange struct {
	ID        string    `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Status    string    `db:"status" json:"status"`
	Notes     string    `db:"notes" json:"notes"`
	ChangedBy string    `db:"changed_by" json:"changed_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderDetails is an order together with its payment claim, if any.
type OrderDetails struct {
	Order        *Order               `json:"order"`
	Verification *PaymentVerification `json:"payment_verification,omitempty"`
	History      []OrderStatusChange  `json:"history"`
}

type OrderPage struct {
	Orders []*Order `json:"orders"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
	Total  int      `json:"total"`
}
