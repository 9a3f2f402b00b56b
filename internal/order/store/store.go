// Package store provides an interface for order storage operations.
package store

import (
	"context"

	"github.com/google/uuid"
)

// OrderStore is an interface for order storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
//
// Every method that mutates both stock and order state does so atomically:
// either the whole operation is applied or none of it is observable.
type OrderStore interface {
	// FindByID retrieves a single order and its items by the order's unique identifier.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, []OrderItem, error)

	// FindByUserID returns a page of orders for a specific user, newest first.
	// Returns an empty slice if no orders exist.
	FindByUserID(ctx context.Context, params FindByUserIDParams) ([]Order, error)

	// FindAll returns a page of all orders, newest first.
	FindAll(ctx context.Context, offset, limit int32) ([]Order, error)

	// CreateOrder decrements stock for every requested item and inserts the
	// order and its items in one transaction. Stock is only decremented when
	// sufficient (conditional decrement); the first failing item aborts the
	// whole operation. Returns ErrProductNotFound or ErrInsufficientStock.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, []OrderItem, error)

	// CancelOrder restores each item's quantity to product stock and marks
	// the order cancelled, in one transaction. Returns ErrNotCancellable if
	// the order is not pending, ErrOrderNotFound if it does not exist.
	CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateStatus moves the order along the legal status graph.
	// Returns ErrInvalidTransition for an illegal move.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error)

	// MarkPaymentInitiated records the provider reference and moves the
	// payment status to initiated. Returns ErrAlreadyPaid for a completed order.
	MarkPaymentInitiated(ctx context.Context, id uuid.UUID, ref string) (*Order, error)

	// MarkPaymentCompleted moves the payment status to completed and the
	// order to processing when it was pending. Idempotent: a second call is
	// a no-op and reports changed=false. Stock is never touched here.
	MarkPaymentCompleted(ctx context.Context, id uuid.UUID, ref string) (order *Order, changed bool, err error)

	// MarkPaymentFailed records a failed payment attempt. A failure report
	// arriving after the payment completed is ignored; the completed order
	// is returned unchanged.
	MarkPaymentFailed(ctx context.Context, id uuid.UUID, ref string) (*Order, error)
}
