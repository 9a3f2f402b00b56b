// Package nats wires the process to the NATS server that carries the
// domain events.
package nats

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/nhupane/gopasal/pkg/config"
)

// NewClient dials the configured NATS server. The connection reconnects
// indefinitely; event publishing must survive a broker restart.
func NewClient(cfg config.NATSConfig) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Url,
		nats.Name("gopasal"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NewJetStreamContext derives a JetStream context from an established
// connection, closing it on failure.
func NewJetStreamContext(nc *nats.Conn) (jetstream.JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return js, nil
}
