package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	wlerrors "github.com/nhupane/gopasal/internal/wishlist/errors"
)

const foreignKeyViolation = "23503"

const wishlistColumns = `wi.id, wi.user_id, wi.product_id, p.name, p.price, p.image_url, p.stock_quantity, wi.created_at`

// PgStore is a PostgreSQL-backed implementation of the WishlistStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ WishlistStore = (*PgStore)(nil)

func (s *PgStore) Add(ctx context.Context, userID, productID uuid.UUID) (*WishlistItem, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT uq_wishlist_user_product
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`,
		userID, productID).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, wlerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %w", wlerrors.ErrAddItem, err)
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+wishlistColumns+`
		  FROM wishlist_items wi JOIN products p ON p.id = wi.product_id
		 WHERE wi.id = $1`, id)
	item, err := scanWishlistItem(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wlerrors.ErrAddItem, err)
	}
	return item, nil
}

func (s *PgStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+wishlistColumns+`
		  FROM wishlist_items wi JOIN products p ON p.id = wi.product_id
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", wlerrors.ErrFailedToList, err)
	}
	defer rows.Close()

	var items []WishlistItem
	for rows.Next() {
		item, err := scanWishlistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", wlerrors.ErrFailedToList, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", wlerrors.ErrFailedToList, err)
	}
	return items, nil
}

func (s *PgStore) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("%w: %w", wlerrors.ErrRemoveItem, err)
	}
	if tag.RowsAffected() == 0 {
		return wlerrors.ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWishlistItem(row rowScanner) (*WishlistItem, error) {
	var item WishlistItem
	err := row.Scan(
		&item.ID, &item.UserID, &item.ProductID,
		&item.ProductName, &item.ProductPrice, &item.ImageURL, &item.Stock,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
