// Package errors provides custom error types for the user domain.
package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account not verified")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrCreateUser         = errors.New("failed to create user")
	ErrFailedToFindUser   = errors.New("failed to find user")
	ErrUpdateUser         = errors.New("failed to update user")
)
