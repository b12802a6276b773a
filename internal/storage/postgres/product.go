package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/dram-store/internal/domain/product"
)

const (
	productColumns = `id, name, price, description, strength, volume, category,
		stock, ratings, num_of_reviews, images, owner_id, created_at`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	// Conditional single-statement adjustment: the WHERE clause is the
	// non-negative stock guard, so concurrent checkouts can never drive
	// stock below zero (no read-modify-write window).
	adjustStockSQL = `UPDATE products SET stock = stock + $2
		WHERE id = $1 AND stock + $2 >= 0`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	// Narrow write: only the aggregate columns change, nothing else is
	// validated or touched.
	updateRatingsSQL = `UPDATE products SET ratings = $2, num_of_reviews = $3 WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// AdjustStock applies a signed stock delta as a single conditional update.
// A delta that would push stock below zero is rejected with
// InsufficientStockError; a missing product yields ErrNotFound.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock for product %q: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, productExistsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking product %q: %w", id, err)
	}
	if !exists {
		return product.ErrNotFound
	}
	return &product.InsufficientStockError{ProductID: id, Requested: -delta}
}

// UpdateRatings persists the denormalized review aggregates.
func (r *ProductRepository) UpdateRatings(ctx context.Context, id string, ratings float64, numOfReviews int) error {
	tag, err := r.pool.Exec(ctx, updateRatingsSQL, id, ratings, numOfReviews)
	if err != nil {
		return fmt.Errorf("updating ratings for product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p        product.Product
		price    decimal.Decimal
		category string
		images   []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &price, &p.Description, &p.Strength, &p.Volume, &category,
		&p.Stock, &p.Ratings, &p.NumOfReviews, &images, &p.OwnerID, &p.CreatedAt,
	)
	if err != nil {
		return p, err
	}
	p.Price = price
	p.Category = product.Category(category)
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return p, fmt.Errorf("unmarshaling images for product %q: %w", p.ID, err)
	}
	return p, nil
}
