package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	carterrors "github.com/nhupane/gopasal/internal/cart/errors"
)

// foreignKeyViolation is raised when the product being added does not exist.
const foreignKeyViolation = "23503"

const cartItemColumns = `ci.id, ci.user_id, ci.product_id, ci.quantity, p.name, p.price, p.image_url, p.stock_quantity, ci.created_at`

// PgStore is a PostgreSQL-backed implementation of the CartStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ CartStore = (*PgStore)(nil)

func (s *PgStore) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int32) (*CartItem, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT uq_cart_user_product
		DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id`,
		userID, productID, quantity).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, carterrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %w", carterrors.ErrUpsertItem, err)
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+cartItemColumns+`
		  FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.id = $1`, id)
	item, err := scanCartItem(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrUpsertItem, err)
	}
	return item, nil
}

func (s *PgStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]CartItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+cartItemColumns+`
		  FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrFailedToList, err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", carterrors.ErrFailedToList, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrFailedToList, err)
	}
	return items, nil
}

func (s *PgStore) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("%w: %w", carterrors.ErrRemoveItem, err)
	}
	if tag.RowsAffected() == 0 {
		return carterrors.ErrItemNotFound
	}
	return nil
}

func (s *PgStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%w: %w", carterrors.ErrRemoveItem, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartItem(row rowScanner) (*CartItem, error) {
	var item CartItem
	err := row.Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity,
		&item.ProductName, &item.ProductPrice, &item.ImageURL, &item.Stock,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
