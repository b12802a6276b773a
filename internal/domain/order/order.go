package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
)

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidTransitionError indicates a status change that the order state
// machine does not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Status is the fulfillment state of an order. Transitions only move forward:
// Processing -> Shipped -> Delivered.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// rank orders statuses along the fulfillment pipeline.
func (s Status) rank() int {
	switch s {
	case StatusProcessing:
		return 0
	case StatusShipped:
		return 1
	case StatusDelivered:
		return 2
	}
	return -1
}

// Item is a line item inside an order. Name, Price, and Image are snapshots
// captured at order-creation time: changing the product afterwards must not
// alter historical orders.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// ShippingInfo is the destination snapshot stored with an order.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	PhoneNo    string `json:"phone_no"`
}

// PaymentInfo records the gateway transaction backing a paid order.
type PaymentInfo struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// Order is a paid, priced purchase. Totals are fixed at creation and never
// recomputed from current product prices.
type Order struct {
	ID          string
	UserID      string
	Items       []Item
	Shipping    ShippingInfo
	Payment     PaymentInfo
	Totals      Totals
	Status      Status
	PaidAt      time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
}

// Repository defines persistence operations for orders.
//
// Create must persist the order and decrement stock for every line item as a
// single atomic unit: if any item's stock cannot cover its quantity, nothing
// is written and the error identifies the offending product.
//
// UpdateStatus writes the new status only while the stored status still
// equals from; a concurrent change surfaces as InvalidTransitionError
// carrying the actual stored status.
//
// Delete removes the order and, unless the stored order is already
// Delivered, returns every line item's quantity to its product's stock in
// the same atomic unit. The restitution decision is taken from the row
// inside that unit, never from an earlier read.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, deliveredAt *time.Time) error
	Delete(ctx context.Context, id string) error
}
