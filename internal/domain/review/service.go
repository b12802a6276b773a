package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/dram-store/internal/domain/product"
)

// UpsertRequest holds the input for submitting or replacing a review.
type UpsertRequest struct {
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
}

// Service maintains reviews and keeps each product's rating aggregates in
// sync: every mutation recomputes the mean rating and review count from the
// stored reviews and writes them back to the catalog.
type Service struct {
	products product.Repository
	reviews  Repository
}

// NewService creates a review Service.
func NewService(products product.Repository, reviews Repository) *Service {
	return &Service{products: products, reviews: reviews}
}

// Upsert creates the requester's review of a product, or replaces the
// existing one in place when the user has already reviewed it. The review
// count only grows on first submission, and the returned review always
// carries the stored id and creation time.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, &InvalidRatingError{Rating: req.Rating}
	}

	if _, err := s.products.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Review{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Upsert(ctx, r); err != nil {
		return nil, errors.Wrap(err, "upsert review")
	}

	if err := s.recompute(ctx, req.ProductID); err != nil {
		return nil, err
	}
	return r, nil
}

// Remove deletes a single review by id and recomputes the product's
// aggregates from the remaining reviews. Removing the last review resets the
// aggregates to zero.
func (s *Service) Remove(ctx context.Context, productID, reviewID string) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, productID, reviewID); err != nil {
		return err
	}

	return s.recompute(ctx, productID)
}

// ListForProduct returns all reviews of a product.
func (s *Service) ListForProduct(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviews.ListByProduct(ctx, productID)
}

func (s *Service) recompute(ctx context.Context, productID string) error {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return errors.Wrap(err, "list reviews")
	}

	summary := Aggregate(reviews)
	if err := s.products.UpdateRatings(ctx, productID, summary.Ratings, summary.NumOfReviews); err != nil {
		return errors.Wrap(err, "update ratings")
	}
	return nil
}
