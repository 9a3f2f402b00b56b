// Package store provides data access for wishlists.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WishlistItem is a wishlist row joined with its product fields.
type WishlistItem struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductPrice int64
	ImageURL     string
	Stock        int32
	CreatedAt    time.Time
}

// WishlistStore defines the interface for wishlist persistence.
type WishlistStore interface {
	// Add puts a product on the user's wishlist. Re-adding is a no-op.
	// Returns ErrProductNotFound for an unknown product.
	Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItem, error)

	// FindByUserID lists the user's wishlist, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error)

	// Remove takes a product off the user's wishlist.
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}
