package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogerrors "github.com/nhupane/gopasal/internal/catalog/errors"
)

const productColumns = `id, name, description, price, stock_quantity, category, image_url, rating, total_reviews, version, created_at, updated_at`

// PgStore is a PostgreSQL-backed implementation of the ProductStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ ProductStore = (*PgStore)(nil)

func (s *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFailedToFindProduct, err)
	}
	return product, nil
}

func (s *PgStore) FindAll(ctx context.Context, params ListParams) ([]Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+productColumns+`
		  FROM products
		 WHERE ($1 = '' OR category = $1)
		   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		 ORDER BY created_at DESC
		 OFFSET $3 LIMIT $4`,
		params.Category, params.Search, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFailedToListProducts, err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *PgStore) Create(ctx context.Context, params CreateProductParams) (*Product, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock_quantity, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		params.Name, params.Description, params.Price, params.StockQuantity, params.Category, params.ImageURL)
	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrCreateProduct, err)
	}
	return product, nil
}

func (s *PgStore) Update(ctx context.Context, params UpdateProductParams) (*Product, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE products
		   SET name = $2, description = $3, price = $4, stock_quantity = $5,
		       category = $6, image_url = $7, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $8
		RETURNING `+productColumns,
		params.ID, params.Name, params.Description, params.Price, params.StockQuantity,
		params.Category, params.ImageURL, params.Version)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is gone or the version moved under us.
			if _, findErr := s.FindByID(ctx, params.ID); findErr != nil {
				return nil, findErr
			}
			return nil, catalogerrors.ErrVersionConflict
		}
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrUpdateProduct, err)
	}
	return product, nil
}

func (s *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %w", catalogerrors.ErrDeleteProduct, err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrProductNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Category, &p.ImageURL, &p.Rating, &p.TotalReviews,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFailedToListProducts, err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", catalogerrors.ErrFailedToListProducts, err)
	}
	return products, nil
}
