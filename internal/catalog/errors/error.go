// Package errors provides custom error types for the catalog domain.
package errors

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrVersionConflict      = errors.New("product was modified concurrently")
	ErrFailedToFindProduct  = errors.New("failed to find product")
	ErrFailedToListProducts = errors.New("failed to list products")
	ErrCreateProduct        = errors.New("failed to create product")
	ErrUpdateProduct        = errors.New("failed to update product")
	ErrDeleteProduct        = errors.New("failed to delete product")
)
