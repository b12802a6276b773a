package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a stock adjustment would drive a product's
// stock below zero. The adjustment is not applied.
type InsufficientStockError struct {
	ProductID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d", e.ProductID, e.Requested)
}

// Category enumerates the whisky catalog categories.
type Category string

const (
	CategorySingleMalt  Category = "Single Malt"
	CategoryBlend       Category = "Blend"
	CategorySingleGrain Category = "Single Grain"
	CategoryPureMalt    Category = "Pure Malt"
	CategorySingleCask  Category = "Single Cask"
	CategoryNewMalt     Category = "New Malt"
)

// Categories lists every valid category, in catalog order.
var Categories = []Category{
	CategorySingleMalt,
	CategoryBlend,
	CategorySingleGrain,
	CategoryPureMalt,
	CategorySingleCask,
	CategoryNewMalt,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Image holds a stored product image reference.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Product represents a catalog item available for purchase.
//
// Ratings and NumOfReviews are denormalized aggregates over the product's
// reviews; they are maintained by the review service and must not be written
// by anything else.
type Product struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	Description  string
	Strength     int
	Volume       int
	Category     Category
	Stock        int
	Ratings      float64
	NumOfReviews int
	Images       []Image
	OwnerID      string
	CreatedAt    time.Time
}

// Repository defines catalog operations used by the order and review services.
//
// AdjustStock applies a signed delta to a product's stock as a single
// conditional write touching only the stock column: it skips full-document
// validation so inventory movements are never blocked by unrelated catalog
// rules, and it must fail with InsufficientStockError rather than persist a
// negative stock. UpdateRatings follows the same narrow-write policy for the
// review aggregates.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	AdjustStock(ctx context.Context, id string, delta int) error
	UpdateRatings(ctx context.Context, id string, ratings float64, numOfReviews int) error
}
