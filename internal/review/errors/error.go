// Package errors provides custom error types for the review domain.
package errors

import "errors"

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrDuplicateReview     = errors.New("product already reviewed for this order")
	ErrNotEligible         = errors.New("reviews require a delivered order containing the product")
	ErrAccessDenied        = errors.New("access denied")
	ErrCreateReview        = errors.New("failed to create review")
	ErrFailedToListReviews = errors.New("failed to list reviews")
	ErrUpdateReview        = errors.New("failed to update review")
	ErrDeleteReview        = errors.New("failed to delete review")
)
