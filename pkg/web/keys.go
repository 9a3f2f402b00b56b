package web

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}
type userIDKey struct{}
type userRoleKey struct{}

// Roles recognised by the authorization middleware.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom retrieves the request ID from the context.
// Returns the request ID and a boolean indicating whether it was found.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// WithUser enriches the context with the authenticated user's ID and role.
func WithUser(ctx context.Context, id uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, id)
	return context.WithValue(ctx, userRoleKey{}, role)
}

// UserIDFrom retrieves the authenticated user's ID from the context.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// UserRoleFrom retrieves the authenticated user's role from the context.
func UserRoleFrom(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKey{}).(string)
	return role, ok
}
