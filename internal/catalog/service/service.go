// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nhupane/gopasal/internal/catalog/store"
)

// cacheTTL bounds how stale a cached product view may get. Admin edits and
// deletes drop the cached entry immediately; stock movements from order
// placement and cancellation do not, so StockQuantity in a cached read may
// lag the orders table by up to this long.
const cacheTTL = 2 * time.Minute

// ProductService defines the methods for managing products.
type ProductService interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)
	FindAll(ctx context.Context, params store.ListParams) ([]ProductDto, error)
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)
	Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Service implements ProductService backed by a ProductStore with a
// read-through Redis cache on single-product lookups.
type Service struct {
	productStore store.ProductStore
	cache        *redis.Client
}

// NewService creates a new catalog Service. cache may be nil to disable caching.
func NewService(productStore store.ProductStore, cache *redis.Client) *Service {
	return &Service{productStore: productStore, cache: cache}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	StockQuantity int32     `json:"stock_quantity"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"image_url"`
	Rating        float64   `json:"rating"`
	TotalReviews  int32     `json:"total_reviews"`
	Version       int32     `json:"version"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name          string `json:"name"           validate:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price"          validate:"required,gte=0"`
	StockQuantity int32  `json:"stock_quantity" validate:"gte=0"`
	Category      string `json:"category"`
	ImageURL      string `json:"image_url"      validate:"omitempty,url"`
}

// ProductUpdateDto carries a full product update with the version the caller
// last saw.
type ProductUpdateDto struct {
	Name          string `json:"name"           validate:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price"          validate:"required,gte=0"`
	StockQuantity int32  `json:"stock_quantity" validate:"gte=0"`
	Category      string `json:"category"`
	ImageURL      string `json:"image_url"      validate:"omitempty,url"`
	Version       int32  `json:"version"        validate:"required,gte=1"`
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	if dto := s.cacheGet(ctx, id); dto != nil {
		return dto, nil
	}

	product, err := s.productStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := toDto(product)
	s.cacheSet(ctx, dto)
	return dto, nil
}

func (s *Service) FindAll(ctx context.Context, params store.ListParams) ([]ProductDto, error) {
	products, err := s.productStore.FindAll(ctx, params)
	if err != nil {
		return nil, err
	}

	dtos := make([]ProductDto, 0, len(products))
	for i := range products {
		dtos = append(dtos, *toDto(&products[i]))
	}
	return dtos, nil
}

func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	created, err := s.productStore.Create(ctx, store.CreateProductParams{
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		Category:      product.Category,
		ImageURL:      product.ImageURL,
	})
	if err != nil {
		return nil, err
	}
	return toDto(created), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, product ProductUpdateDto) (*ProductDto, error) {
	updated, err := s.productStore.Update(ctx, store.UpdateProductParams{
		ID:            id,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		Category:      product.Category,
		ImageURL:      product.ImageURL,
		Version:       product.Version,
	})
	if err != nil {
		return nil, err
	}

	s.cacheDel(ctx, id)
	return toDto(updated), nil
}

func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.productStore.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.cacheDel(ctx, id)
	return nil
}

func (s *Service) cacheGet(ctx context.Context, id uuid.UUID) *ProductDto {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Product cache read failed", "error", err)
		}
		return nil
	}
	var dto ProductDto
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil
	}
	return &dto
}

func (s *Service) cacheSet(ctx context.Context, dto *ProductDto) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(dto.ID), raw, cacheTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Product cache write failed", "error", err)
	}
}

func (s *Service) cacheDel(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(id)).Err(); err != nil {
		slog.WarnContext(ctx, "Product cache invalidation failed", "error", err)
	}
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

// toDto converts a store.Product to a ProductDto.
func toDto(p *store.Product) *ProductDto {
	return &ProductDto{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Rating:        p.Rating,
		TotalReviews:  p.TotalReviews,
		Version:       p.Version,
	}
}
