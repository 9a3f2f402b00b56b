// Package store provides data access for product reviews.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review is a stored product review.
type Review struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Rating    int32
	Comment   string
	Visible   bool
	CreatedAt time.Time
}

// CreateReviewParams holds everything needed to record a review.
type CreateReviewParams struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Rating    int32
	Comment   string
}

// UpdateReviewParams carries an author's edit of their own review.
type UpdateReviewParams struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Rating  int32
	Comment string
}

// ReviewStore defines the interface for review persistence.
type ReviewStore interface {
	// Create records a review after checking eligibility: the order must
	// belong to the user, be delivered, and contain the product. The
	// product's rating and total_reviews are recomputed in the same
	// transaction. Returns ErrNotEligible or ErrDuplicateReview on the
	// respective violations.
	Create(ctx context.Context, params CreateReviewParams) (*Review, error)

	// FindByProductID lists the visible reviews of a product, newest first.
	FindByProductID(ctx context.Context, productID uuid.UUID, offset, limit int32) ([]Review, error)

	// Update rewrites the rating and comment of a review owned by the
	// given user and recomputes the product aggregates. Returns
	// ErrAccessDenied when the review belongs to someone else.
	Update(ctx context.Context, params UpdateReviewParams) (*Review, error)

	// Delete removes a review owned by the given user and recomputes the
	// product aggregates.
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error

	// SetVisibility hides or shows a review and recomputes the product
	// aggregates. Admin moderation path.
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (*Review, error)
}
