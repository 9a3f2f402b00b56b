// Package errors provides custom error types for the wishlist domain.
package errors

import "errors"

var (
	ErrItemNotFound    = errors.New("wishlist item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrAddItem         = errors.New("failed to add wishlist item")
	ErrFailedToList    = errors.New("failed to list wishlist items")
	ErrRemoveItem      = errors.New("failed to remove wishlist item")
)
