// Package store provides data access for user accounts.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a stored account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Phone        string
	Role         string
	Verified     bool
	CreatedAt    time.Time
}

// CreateUserParams holds the fields of a new account.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Phone        string
}

// UserStore defines the interface for account persistence.
type UserStore interface {
	// Create inserts a new account. Returns ErrEmailTaken when the email
	// is already registered.
	Create(ctx context.Context, params CreateUserParams) (*User, error)

	// FindByID returns a user or ErrUserNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail returns a user or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// MarkVerified flips the verified flag.
	MarkVerified(ctx context.Context, id uuid.UUID) (*User, error)
}
