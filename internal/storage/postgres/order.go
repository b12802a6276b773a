package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dram-store/internal/domain/order"
	"github.com/xenking/dram-store/internal/domain/product"
)

const (
	orderColumns = `id, user_id, items,
		shipping_address, shipping_city, shipping_postal_code, shipping_country, shipping_phone_no,
		items_price, shipping_price, tax_price, total_price,
		payment_transaction_id, payment_status,
		status, paid_at, delivered_at, created_at`

	createOrderSQL = `INSERT INTO orders (id, user_id, items,
		shipping_address, shipping_city, shipping_postal_code, shipping_country, shipping_phone_no,
		items_price, shipping_price, tax_price, total_price,
		payment_transaction_id, payment_status, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at`

	// Conditional on the current status: a racing writer that already
	// moved the order on makes this a no-op instead of a regression.
	updateOrderStatusSQL = `UPDATE orders SET status = $2, delivered_at = $3
		WHERE id = $1 AND status = $4`

	getOrderStatusSQL = `SELECT status FROM orders WHERE id = $1`

	getOrderForUpdateSQL = getOrderByIDSQL + ` FOR UPDATE`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
//
// Create and Delete run their stock side effects in the same transaction as
// the order row: an order can never exist whose quantities are not reflected
// in stock, and a failed restitution never loses the order row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and decrements stock for every line item,
// all-or-nothing. A line item whose product lacks sufficient stock aborts
// the whole order with product.InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON,
		o.Shipping.Address, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Country, o.Shipping.PhoneNo,
		o.Totals.ItemsPrice, o.Totals.ShippingPrice, o.Totals.TaxPrice, o.Totals.TotalPrice,
		o.Payment.TransactionID, o.Payment.Status, string(o.Status), o.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, item := range o.Items {
		if err := adjustStockTx(ctx, tx, item.ProductID, -item.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns all orders owned by userID in insertion order.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order in insertion order.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus advances an order's fulfillment status, conditional on the
// stored status still being from. Zero affected rows means either the order
// is gone or another writer changed the status first; the follow-up read
// tells the two apart.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status, deliveredAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(to), deliveredAt, string(from))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.pool.QueryRow(ctx, getOrderStatusSQL, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking status of order %q: %w", id, err)
	}
	return &order.InvalidTransitionError{From: order.Status(current), To: to}
}

// Delete removes an order. The row is re-read under lock inside the
// transaction and restitution follows the status found there: a not yet
// delivered order gets every line item's quantity returned to stock, a
// Delivered one is removed as is. A concurrent delivery therefore never
// earns stock back.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, getOrderForUpdateSQL, id)
	if err != nil {
		return fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return fmt.Errorf("getting order %q: %w", id, err)
	}

	if o.Status != order.StatusDelivered {
		for _, item := range o.Items {
			if err := adjustStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
				// A product deleted since purchase cannot take the stock
				// back; drop that item's restitution rather than keep an
				// undeletable order.
				if errors.Is(err, product.ErrNotFound) {
					continue
				}
				return err
			}
		}
	}

	tag, err := tx.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete of order %q: %w", id, err)
	}
	return nil
}

// adjustStockTx is the transactional variant of ProductRepository.AdjustStock.
func adjustStockTx(ctx context.Context, tx pgx.Tx, productID string, delta int) error {
	tag, err := tx.Exec(ctx, adjustStockSQL, productID, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock for product %q: %w", productID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, productExistsSQL, productID).Scan(&exists); err != nil {
		return fmt.Errorf("checking product %q: %w", productID, err)
	}
	if !exists {
		return errors.Wrapf(product.ErrNotFound, "product %s", productID)
	}
	return &product.InsufficientStockError{ProductID: productID, Requested: -delta}
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		items  []byte
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &items,
		&o.Shipping.Address, &o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country, &o.Shipping.PhoneNo,
		&o.Totals.ItemsPrice, &o.Totals.ShippingPrice, &o.Totals.TaxPrice, &o.Totals.TotalPrice,
		&o.Payment.TransactionID, &o.Payment.Status,
		&status, &o.PaidAt, &o.DeliveredAt, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.ID, err)
	}
	return o, nil
}
