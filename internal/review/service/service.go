// Package service provides the implementation of review business logic.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nhupane/gopasal/internal/review/store"
)

// ReviewService defines the methods for managing product reviews.
type ReviewService interface {
	// Create records a review for a product the user received in a
	// delivered order. One review per (user, product, order).
	Create(ctx context.Context, review ReviewCreateDto) (*ReviewDto, error)

	// FindByProductID lists the visible reviews of a product.
	FindByProductID(ctx context.Context, productID uuid.UUID, offset, limit int32) ([]ReviewDto, error)

	// Update edits the caller's own review.
	Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, review ReviewUpdateDto) (*ReviewDto, error)

	// Delete removes the caller's own review.
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error

	// SetVisibility hides or shows a review. Admin use.
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (*ReviewDto, error)
}

// Service implements ReviewService.
type Service struct {
	reviewStore store.ReviewStore
}

// NewService creates a new review Service.
func NewService(reviewStore store.ReviewStore) *Service {
	return &Service{reviewStore: reviewStore}
}

// ReviewDto represents the data transfer object for a review.
type ReviewDto struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Rating    int32     `json:"rating"`
	Comment   string    `json:"comment"`
	Visible   bool      `json:"visible"`
	CreatedAt string    `json:"created_at"`
}

// ReviewCreateDto represents the data transfer object for creating a review.
type ReviewCreateDto struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	OrderID   uuid.UUID `json:"order_id"   validate:"required"`
	Rating    int32     `json:"rating"     validate:"required,min=1,max=5"`
	Comment   string    `json:"comment"    validate:"max=2000"`
}

// ReviewUpdateDto carries an author's edit of their review.
type ReviewUpdateDto struct {
	Rating  int32  `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// VisibilityUpdateDto carries an admin moderation change.
type VisibilityUpdateDto struct {
	Visible *bool `json:"visible" validate:"required"`
}

func (s *Service) Create(ctx context.Context, review ReviewCreateDto) (*ReviewDto, error) {
	created, err := s.reviewStore.Create(ctx, store.CreateReviewParams{
		UserID:    review.UserID,
		ProductID: review.ProductID,
		OrderID:   review.OrderID,
		Rating:    review.Rating,
		Comment:   review.Comment,
	})
	if err != nil {
		return nil, err
	}
	return toDto(created), nil
}

func (s *Service) FindByProductID(ctx context.Context, productID uuid.UUID, offset, limit int32) ([]ReviewDto, error) {
	reviews, err := s.reviewStore.FindByProductID(ctx, productID, offset, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReviewDto, 0, len(reviews))
	for i := range reviews {
		dtos = append(dtos, *toDto(&reviews[i]))
	}
	return dtos, nil
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, id uuid.UUID, review ReviewUpdateDto) (*ReviewDto, error) {
	updated, err := s.reviewStore.Update(ctx, store.UpdateReviewParams{
		ID:      id,
		UserID:  userID,
		Rating:  review.Rating,
		Comment: review.Comment,
	})
	if err != nil {
		return nil, err
	}
	return toDto(updated), nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.reviewStore.Delete(ctx, userID, id)
}

func (s *Service) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (*ReviewDto, error) {
	updated, err := s.reviewStore.SetVisibility(ctx, id, visible)
	if err != nil {
		return nil, err
	}
	return toDto(updated), nil
}

// toDto converts a store.Review to a ReviewDto.
func toDto(r *store.Review) *ReviewDto {
	return &ReviewDto{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		OrderID:   r.OrderID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Visible:   r.Visible,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}
