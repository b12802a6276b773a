package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/dram-store/internal/domain/review"
)

const (
	// Resubmission by the same user replaces the stored review in place:
	// the original row keeps its id and created_at, and RETURNING reports
	// them back so the caller always holds the stored identity.
	upsertReviewSQL = `INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (product_id, user_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	listReviewsByProductSQL = `SELECT id, product_id, user_id, user_name, rating, comment, created_at, updated_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at`

	deleteReviewSQL = `DELETE FROM reviews WHERE product_id = $1 AND id = $2`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Upsert inserts the review, or replaces the user's existing review of the
// product in place. On replacement rev.ID and rev.CreatedAt are overwritten
// with the stored row's values.
func (r *ReviewRepository) Upsert(ctx context.Context, rev *review.Review) error {
	err := r.pool.QueryRow(ctx, upsertReviewSQL,
		rev.ID, rev.ProductID, rev.UserID, rev.UserName, rev.Rating, rev.Comment, rev.CreatedAt,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting review for product %q: %w", rev.ProductID, err)
	}
	return nil
}

// ListByProduct returns all reviews of a product in submission order.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews for product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanReview)
}

// Delete removes a single review by id.
func (r *ReviewRepository) Delete(ctx context.Context, productID, reviewID string) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, productID, reviewID)
	if err != nil {
		return fmt.Errorf("deleting review %q: %w", reviewID, err)
	}
	if tag.RowsAffected() == 0 {
		return &review.NotFoundError{ReviewID: reviewID, ProductID: productID}
	}
	return nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rev review.Review
	err := row.Scan(
		&rev.ID, &rev.ProductID, &rev.UserID, &rev.UserName,
		&rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt,
	)
	return rev, err
}
