package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/nhupane/gopasal/pkg/messaging"
)

// streamName is the JetStream stream holding all domain events.
const streamName = "GOPASAL_EVENTS"

// NatsPublisher publishes domain events to JetStream with at-least-once
// delivery.
type NatsPublisher struct {
	js jetstream.JetStream
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// EnsureStream creates or updates the stream capturing every domain
// event subject. Safe to call on every startup.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name: streamName,
		Subjects: []string{
			messaging.OrdersCreatedSubject,
			messaging.OrdersCancelledSubject,
			messaging.PaymentsCompletedSubject,
			messaging.UsersRegisteredSubject,
		},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return nil
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	_, err = p.js.Publish(ctx, event.Subject(), data)
	return err
}
