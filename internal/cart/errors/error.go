// Package errors provides custom error types for the cart domain.
package errors

import "errors"

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUpsertItem      = errors.New("failed to save cart item")
	ErrFailedToList    = errors.New("failed to list cart items")
	ErrRemoveItem      = errors.New("failed to remove cart item")
)
