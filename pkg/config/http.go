package config

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds the listener settings of the public API server.
// All four timeouts are mandatory; a server with an unbounded read or
// write deadline hangs on slow clients.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

// String returns a string representation of the HTTP server configuration.
func (c *HTTPConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP ---\n")
	b.WriteString(fmt.Sprintf("  port: %d\n", c.Port))
	b.WriteString(fmt.Sprintf("  maxHeaderBytes: %d\n", c.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  timeout.read: %s\n", c.Timeout.Read))
	b.WriteString(fmt.Sprintf("  timeout.write: %s\n", c.Timeout.Write))
	b.WriteString(fmt.Sprintf("  timeout.idle: %s\n", c.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  timeout.readHeader: %s\n", c.Timeout.ReadHeader))
	return b.String()
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	for _, tc := range []struct {
		name  string
		value time.Duration
	}{
		{"read", c.Timeout.Read},
		{"write", c.Timeout.Write},
		{"idle", c.Timeout.Idle},
		{"readHeader", c.Timeout.ReadHeader},
	} {
		if tc.value <= 0 {
			return fmt.Errorf("invalid HTTP server %s timeout: %v", tc.name, tc.value)
		}
	}
	return nil
}
