// Package store provides aggregate queries for the admin dashboard.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats is a point-in-time snapshot of the shop. Revenue counts every order
// that is not cancelled.
type Stats struct {
	TotalUsers    int64
	TotalProducts int64
	TotalOrders   int64
	PendingOrders int64
	Revenue       int64
	OutOfStock    []OutOfStockProduct
}

// OutOfStockProduct names a product whose stock has run dry.
type OutOfStockProduct struct {
	ID   uuid.UUID
	Name string
}

// StatsStore defines the interface for dashboard aggregates.
type StatsStore interface {
	Snapshot(ctx context.Context) (*Stats, error)
}

// PgStore is a PostgreSQL-backed implementation of the StatsStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ StatsStore = (*PgStore)(nil)

func (s *PgStore) Snapshot(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM users WHERE role = 'customer'),
		       (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM orders),
		       (SELECT COUNT(*) FROM orders WHERE status = 'pending'),
		       (SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled')`).
		Scan(&stats.TotalUsers, &stats.TotalProducts, &stats.TotalOrders, &stats.PendingOrders, &stats.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard counters: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT id, name FROM products WHERE stock_quantity = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load out-of-stock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p OutOfStockProduct
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to load out-of-stock products: %w", err)
		}
		stats.OutOfStock = append(stats.OutOfStock, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load out-of-stock products: %w", err)
	}
	return &stats, nil
}
