// Package service provides the implementation of wishlist business logic.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nhupane/gopasal/internal/wishlist/store"
)

// WishlistService defines the methods for managing a user's wishlist.
type WishlistService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItemDto, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]WishlistItemDto, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

// Service implements WishlistService.
type Service struct {
	wishlistStore store.WishlistStore
}

// NewService creates a new wishlist Service.
func NewService(wishlistStore store.WishlistStore) *Service {
	return &Service{wishlistStore: wishlistStore}
}

// WishlistItemDto is one wishlist entry enriched with its product fields.
type WishlistItemDto struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	ImageURL  string    `json:"image_url"`
	InStock   bool      `json:"in_stock"`
}

func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItemDto, error) {
	item, err := s.wishlistStore.Add(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return toDto(item), nil
}

func (s *Service) FindByUserID(ctx context.Context, userID uuid.UUID) ([]WishlistItemDto, error) {
	items, err := s.wishlistStore.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]WishlistItemDto, 0, len(items))
	for i := range items {
		dtos = append(dtos, *toDto(&items[i]))
	}
	return dtos, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.wishlistStore.Remove(ctx, userID, productID)
}

func toDto(item *store.WishlistItem) *WishlistItemDto {
	return &WishlistItemDto{
		ProductID: item.ProductID,
		Name:      item.ProductName,
		Price:     item.ProductPrice,
		ImageURL:  item.ImageURL,
		InStock:   item.Stock > 0,
	}
}
