// Package service provides the implementation of cart business logic.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nhupane/gopasal/internal/cart/store"
)

// CartService defines the methods for managing a user's shopping cart.
type CartService interface {
	Upsert(ctx context.Context, userID uuid.UUID, item CartItemDto) (*CartItemViewDto, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*CartDto, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Service implements CartService.
type Service struct {
	cartStore store.CartStore
}

// NewService creates a new cart Service.
func NewService(cartStore store.CartStore) *Service {
	return &Service{cartStore: cartStore}
}

// CartItemDto represents the data transfer object for adding a product to the cart.
type CartItemDto struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int32     `json:"quantity"   validate:"required,min=1"`
}

// CartItemViewDto is one cart line enriched with its product fields.
type CartItemViewDto struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	ImageURL  string    `json:"image_url"`
	Quantity  int32     `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	InStock   bool      `json:"in_stock"`
}

// CartDto is a user's full cart with its running total.
type CartDto struct {
	Items []CartItemViewDto `json:"items"`
	Total int64             `json:"total"`
}

func (s *Service) Upsert(ctx context.Context, userID uuid.UUID, item CartItemDto) (*CartItemViewDto, error) {
	saved, err := s.cartStore.Upsert(ctx, userID, item.ProductID, item.Quantity)
	if err != nil {
		return nil, err
	}
	return toViewDto(saved), nil
}

func (s *Service) FindByUserID(ctx context.Context, userID uuid.UUID) (*CartDto, error) {
	items, err := s.cartStore.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := &CartDto{Items: make([]CartItemViewDto, 0, len(items))}
	for i := range items {
		view := toViewDto(&items[i])
		cart.Items = append(cart.Items, *view)
		cart.Total += view.Subtotal
	}
	return cart, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.cartStore.Remove(ctx, userID, productID)
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartStore.Clear(ctx, userID)
}

func toViewDto(item *store.CartItem) *CartItemViewDto {
	return &CartItemViewDto{
		ProductID: item.ProductID,
		Name:      item.ProductName,
		Price:     item.ProductPrice,
		ImageURL:  item.ImageURL,
		Quantity:  item.Quantity,
		Subtotal:  item.ProductPrice * int64(item.Quantity),
		InStock:   item.Stock >= item.Quantity,
	}
}
