package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	usererrors "github.com/nhupane/gopasal/internal/user/errors"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, phone, role, verified, created_at`

// PgStore is a PostgreSQL-backed implementation of the UserStore interface.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of PgStore with the provided pgxpool.Pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ UserStore = (*PgStore)(nil)

func (s *PgStore) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		params.Username, params.Email, params.PasswordHash, params.Phone)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, usererrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %w", usererrors.ErrCreateUser, err)
	}
	return user, nil
}

func (s *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scanOne(row)
}

func (s *PgStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanOne(row)
}

func (s *PgStore) MarkVerified(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE users SET verified = TRUE WHERE id = $1
		RETURNING `+userColumns, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", usererrors.ErrUpdateUser, err)
	}
	return user, nil
}

func (s *PgStore) scanOne(row rowScanner) (*User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", usererrors.ErrFailedToFindUser, err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Verified, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
