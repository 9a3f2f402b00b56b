package store

import (
	"time"

	"github.com/google/uuid"
)

// Order lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentInitiated = "initiated"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment methods.
const (
	MethodCOD    = "cod"
	MethodOnline = "online"
)

// CanTransition reports whether an order status change is legal.
// pending may move to processing or cancelled, processing to delivered;
// delivered and cancelled are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCancelled
	case StatusProcessing:
		return to == StatusDelivered
	default:
		return false
	}
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is an order row.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Total           int64
	ShippingAddress string
	Phone           string
	City            string
	Status          string
	PaymentMethod   string
	PaymentStatus   string
	PaymentRef      string
	Version         int32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is an order line item row.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	Quantity     int32
	PricePerItem int64
	Price        int64
	Reviewed     bool
	CreatedAt    time.Time
}

// CreateOrderParams carries everything needed to create an order.
// Unit prices are read from the catalog inside the transaction; the
// caller only names products and quantities.
type CreateOrderParams struct {
	UserID          uuid.UUID
	ShippingAddress string
	Phone           string
	City            string
	PaymentMethod   string
	Items           []CreateOrderItemParams
}

// CreateOrderItemParams is one requested line item.
type CreateOrderItemParams struct {
	ProductID uuid.UUID
	Quantity  int32
}

// FindByUserIDParams paginates a user's order history.
type FindByUserIDParams struct {
	UserID uuid.UUID
	Offset int32
	Limit  int32
}
