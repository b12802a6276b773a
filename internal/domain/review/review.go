package review

import (
	"context"
	"fmt"
	"time"
)

// NotFoundError is returned when a review id does not resolve for a product.
type NotFoundError struct {
	ReviewID  string
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("review %s not found for product %s", e.ReviewID, e.ProductID)
}

// InvalidRatingError indicates a rating outside the 1-5 range.
type InvalidRatingError struct {
	Rating int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("rating must be between 1 and 5, got %d", e.Rating)
}

// Review is a single user's review of a product. UserName is a display-name
// snapshot taken at submission time. A user has at most one review per
// product: resubmitting replaces the existing entry in place.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary holds a product's denormalized review aggregates.
type Summary struct {
	Ratings      float64
	NumOfReviews int
}

// Aggregate computes the mean rating and count for a set of reviews. An empty
// set yields the zero Summary: ratings are defined as 0 when a product has no
// reviews, never a division-by-zero artifact.
func Aggregate(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return Summary{
		Ratings:      float64(sum) / float64(len(reviews)),
		NumOfReviews: len(reviews),
	}
}

// Repository defines persistence for reviews.
//
// Upsert replaces an existing (product, user) review in place rather than
// appending a duplicate; the original review keeps its id and creation time,
// and Upsert writes those stored values back into r so callers always hold
// an id that Delete can resolve.
type Repository interface {
	Upsert(ctx context.Context, r *Review) error
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Delete(ctx context.Context, productID, reviewID string) error
}
