// Package events defines the payloads published on the message bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nhupane/gopasal/pkg/messaging"
)

type OrderCreatedEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func (o OrderCancelledEvent) Subject() string {
	return messaging.OrdersCancelledSubject
}

func (o OrderCancelledEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

type PaymentCompletedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	Total      int64     `json:"total"`
	PaymentRef string    `json:"payment_ref"`
	PaidAt     time.Time `json:"paid_at"`
}

func (p PaymentCompletedEvent) Subject() string {
	return messaging.PaymentsCompletedSubject
}

func (p PaymentCompletedEvent) Payload() ([]byte, error) {
	return json.Marshal(p)
}
