package messaging

import (
	"context"
)

// Subjects for domain lifecycle events.
const (
	OrdersCreatedSubject     = "orders.created"
	OrdersCancelledSubject   = "orders.cancelled"
	PaymentsCompletedSubject = "payments.completed"
	UsersRegisteredSubject   = "users.registered"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
