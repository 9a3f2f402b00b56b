// Package store provides data access for shopping carts.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartItem is a cart row joined with the product fields a cart view needs.
type CartItem struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ProductID    uuid.UUID
	Quantity     int32
	ProductName  string
	ProductPrice int64
	ImageURL     string
	Stock        int32
	CreatedAt    time.Time
}

// CartStore defines the interface for cart persistence.
type CartStore interface {
	// Upsert sets the quantity for (userID, productID), inserting the row
	// if absent. Returns ErrProductNotFound for an unknown product.
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) (*CartItem, error)

	// FindByUserID lists the user's cart, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]CartItem, error)

	// Remove deletes one product from the user's cart.
	Remove(ctx context.Context, userID, productID uuid.UUID) error

	// Clear empties the user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}
