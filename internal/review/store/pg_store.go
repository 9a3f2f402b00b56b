package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	revErrors "github.com/nhupane/gopasal/internal/review/errors"
)

const reviewColumns = `id, user_id, product_id, order_id, rating, comment, visible, created_at`

// uniqueViolation is the PostgreSQL error code raised by the
// (user_id, product_id, order_id) unique constraint.
const uniqueViolation = "23505"

// PgStore is a PostgreSQL-backed implementation of the ReviewStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ ReviewStore = (*PgStore)(nil)

func (s *PgStore) Create(ctx context.Context, params CreateReviewParams) (*Review, error) {
	var review *Review
	err := s.withTransaction(ctx, func(tx pgx.Tx) error {
		var itemID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT oi.id
			  FROM order_items oi
			  JOIN orders o ON o.id = oi.order_id
			 WHERE o.id = $1 AND o.user_id = $2 AND o.status = 'delivered'
			   AND oi.product_id = $3
			 FOR UPDATE OF oi`,
			params.OrderID, params.UserID, params.ProductID).Scan(&itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return revErrors.ErrNotEligible
			}
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO reviews (user_id, product_id, order_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+reviewColumns,
			params.UserID, params.ProductID, params.OrderID, params.Rating, params.Comment)
		review, err = scanReview(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return revErrors.ErrDuplicateReview
			}
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE order_items SET reviewed = TRUE WHERE id = $1`, itemID); err != nil {
			return err
		}

		return recomputeProductRating(ctx, tx, params.ProductID)
	})
	if err != nil {
		if errors.Is(err, revErrors.ErrNotEligible) || errors.Is(err, revErrors.ErrDuplicateReview) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", revErrors.ErrCreateReview, err)
	}
	return review, nil
}

func (s *PgStore) FindByProductID(ctx context.Context, productID uuid.UUID, offset, limit int32) ([]Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reviewColumns+`
		  FROM reviews
		 WHERE product_id = $1 AND visible
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		productID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", revErrors.ErrFailedToListReviews, err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", revErrors.ErrFailedToListReviews, err)
		}
		reviews = append(reviews, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", revErrors.ErrFailedToListReviews, err)
	}
	return reviews, nil
}

func (s *PgStore) Update(ctx context.Context, params UpdateReviewParams) (*Review, error) {
	var review *Review
	err := s.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reviews SET rating = $3, comment = $4
			 WHERE id = $1 AND user_id = $2
			RETURNING `+reviewColumns,
			params.ID, params.UserID, params.Rating, params.Comment)
		var err error
		review, err = scanReview(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return classifyMissingReview(ctx, tx, params.ID)
			}
			return err
		}
		return recomputeProductRating(ctx, tx, review.ProductID)
	})
	if err != nil {
		if errors.Is(err, revErrors.ErrReviewNotFound) || errors.Is(err, revErrors.ErrAccessDenied) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", revErrors.ErrUpdateReview, err)
	}
	return review, nil
}

func (s *PgStore) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	err := s.withTransaction(ctx, func(tx pgx.Tx) error {
		var productID uuid.UUID
		err := tx.QueryRow(ctx, `
			DELETE FROM reviews WHERE id = $1 AND user_id = $2
			RETURNING product_id`, id, userID).Scan(&productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return classifyMissingReview(ctx, tx, id)
			}
			return err
		}
		return recomputeProductRating(ctx, tx, productID)
	})
	if err != nil {
		if errors.Is(err, revErrors.ErrReviewNotFound) || errors.Is(err, revErrors.ErrAccessDenied) {
			return err
		}
		return fmt.Errorf("%w: %w", revErrors.ErrDeleteReview, err)
	}
	return nil
}

// classifyMissingReview tells a missing review apart from one owned by
// another user.
func classifyMissingReview(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return revErrors.ErrAccessDenied
	}
	return revErrors.ErrReviewNotFound
}

func (s *PgStore) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (*Review, error) {
	var review *Review
	err := s.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reviews SET visible = $2 WHERE id = $1
			RETURNING `+reviewColumns, id, visible)
		var err error
		review, err = scanReview(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return revErrors.ErrReviewNotFound
			}
			return err
		}
		return recomputeProductRating(ctx, tx, review.ProductID)
	})
	if err != nil {
		if errors.Is(err, revErrors.ErrReviewNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", revErrors.ErrUpdateReview, err)
	}
	return review, nil
}

// recomputeProductRating rewrites the product's aggregates from its visible
// reviews. rating falls back to 0 when none remain.
func recomputeProductRating(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE products p
		   SET rating = COALESCE((SELECT AVG(r.rating) FROM reviews r WHERE r.product_id = p.id AND r.visible), 0),
		       total_reviews = (SELECT COUNT(*) FROM reviews r WHERE r.product_id = p.id AND r.visible)
		 WHERE p.id = $1`, productID)
	return err
}

func (s *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.UserID, &r.ProductID, &r.OrderID, &r.Rating, &r.Comment, &r.Visible, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
