// Package store provides data access for the product catalog.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog row. Rating and TotalReviews are maintained by the
// review domain; Version guards concurrent admin edits.
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
	ImageURL      string
	Rating        float64
	TotalReviews  int32
	Version       int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListParams narrows and pages a catalog listing.
type ListParams struct {
	Category string // empty matches all
	Search   string // empty matches all, otherwise case-insensitive name match
	Offset   int32
	Limit    int32
}

// CreateProductParams holds the admin-supplied fields of a new product.
type CreateProductParams struct {
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
	ImageURL      string
}

// UpdateProductParams carries a full product update. Version must match the
// stored row or the update fails with ErrVersionConflict.
type UpdateProductParams struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         int64
	StockQuantity int32
	Category      string
	ImageURL      string
	Version       int32
}

// ProductStore defines the interface for catalog persistence.
type ProductStore interface {
	// FindByID returns a product or ErrProductNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll returns a filtered page of products, newest first.
	FindAll(ctx context.Context, params ListParams) ([]Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, params CreateProductParams) (*Product, error)

	// Update replaces the mutable fields of a product using optimistic
	// locking on Version.
	Update(ctx context.Context, params UpdateProductParams) (*Product, error)

	// DeleteByID removes a product. Returns ErrProductNotFound when no row
	// was deleted.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}
