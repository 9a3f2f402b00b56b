package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig points at the JetStream-enabled NATS server carrying the
// domain events.
type NATSConfig struct {
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the NATS configuration.
func (c *NATSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.Url))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *NATSConfig) Validate() error {
	if c.Url == "" {
		return fmt.Errorf("NATS URL is not configured")
	}
	if !strings.HasPrefix(c.Url, "nats://") && !strings.HasPrefix(c.Url, "tls://") {
		return fmt.Errorf("NATS URL must use the nats:// or tls:// scheme, got %q", c.Url)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("NATS dial timeout is not configured")
	}
	return nil
}
