// Package payment talks to the external payment provider. The provider is
// an opaque collaborator: it hands out a redirect URL for a pending amount
// and later answers lookups for a transaction reference.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Transaction states reported by the provider lookup API.
const (
	StateCompleted = "Completed"
	StatePending   = "Pending"
	StateFailed    = "Failed"
	StateRefunded  = "Refunded"
)

var ErrProviderUnavailable = errors.New("payment provider unavailable")

// InitiateResult is the provider's answer to an initiate call.
type InitiateResult struct {
	Ref        string // provider transaction reference (pidx)
	PaymentURL string // where the buyer completes the payment
}

// VerifyResult is the provider's answer to a lookup call.
type VerifyResult struct {
	Ref    string
	State  string
	Amount int64
}

// Succeeded reports whether the transaction reached a terminal paid state.
func (v *VerifyResult) Succeeded() bool {
	return v.State == StateCompleted
}

// Provider exposes the two calls the order flow needs.
type Provider interface {
	// Initiate registers a pending payment and returns a redirect URL.
	Initiate(ctx context.Context, orderID uuid.UUID, amount int64) (*InitiateResult, error)

	// Verify looks up the state of a previously initiated transaction.
	Verify(ctx context.Context, ref string) (*VerifyResult, error)
}
