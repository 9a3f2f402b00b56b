// Package service provides the implementation of admin dashboard logic.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nhupane/gopasal/internal/admin/store"
)

// statsCacheKey and statsCacheTTL bound how often the aggregate queries run.
const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 30 * time.Second
)

// DashboardService defines the methods for the admin dashboard.
type DashboardService interface {
	Stats(ctx context.Context) (*StatsDto, error)
}

// Service implements DashboardService with a short-lived Redis cache in
// front of the aggregate queries.
type Service struct {
	statsStore store.StatsStore
	cache      *redis.Client
}

// NewService creates a new dashboard Service. cache may be nil to disable caching.
func NewService(statsStore store.StatsStore, cache *redis.Client) *Service {
	return &Service{statsStore: statsStore, cache: cache}
}

// StatsDto represents the data transfer object for the dashboard snapshot.
type StatsDto struct {
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
	Revenue       int64           `json:"revenue"`
	OutOfStock    []OutOfStockDto `json:"out_of_stock"`
}

// OutOfStockDto names a product whose stock has run dry.
type OutOfStockDto struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (s *Service) Stats(ctx context.Context) (*StatsDto, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var dto StatsDto
			if json.Unmarshal(raw, &dto) == nil {
				return &dto, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Dashboard cache read failed", "error", err)
		}
	}

	stats, err := s.statsStore.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dto := toDto(stats)
	if s.cache != nil {
		if raw, err := json.Marshal(dto); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
				slog.WarnContext(ctx, "Dashboard cache write failed", "error", err)
			}
		}
	}
	return dto, nil
}

func toDto(stats *store.Stats) *StatsDto {
	dto := &StatsDto{
		TotalUsers:    stats.TotalUsers,
		TotalProducts: stats.TotalProducts,
		TotalOrders:   stats.TotalOrders,
		PendingOrders: stats.PendingOrders,
		Revenue:       stats.Revenue,
		OutOfStock:    make([]OutOfStockDto, 0, len(stats.OutOfStock)),
	}
	for _, p := range stats.OutOfStock {
		dto.OutOfStock = append(dto.OutOfStock, OutOfStockDto{ID: p.ID, Name: p.Name})
	}
	return dto
}
