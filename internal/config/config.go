// Package config defines the application configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nhupane/gopasal/pkg/config"
)

// Config holds the whole application configuration, loaded from config.yaml
// and the environment.
type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Ops        config.OpsConfig       `koanf:"ops"`
	Database   config.DatabaseConfig  `koanf:"db"`
	Redis      config.RedisConfig     `koanf:"redis"`
	Nats       config.NATSConfig      `koanf:"nats"`
	Token      config.TokenConfig     `koanf:"token"`
	Payment    config.PaymentConfig   `koanf:"payment"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Log        config.LogConfig       `koanf:"log"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
}

// Validate checks every configuration section.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Ops.Validate(); err != nil {
		return fmt.Errorf("ops config: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("db config: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	if err := c.Nats.Validate(); err != nil {
		return fmt.Errorf("nats config: %w", err)
	}
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("token config: %w", err)
	}
	if err := c.Payment.Validate(); err != nil {
		return fmt.Errorf("payment config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := c.Shutdown.Validate(); err != nil {
		return fmt.Errorf("shutdown config: %w", err)
	}
	return nil
}

// String returns a printable representation with credentials masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Ops.String())
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  migrations: %s\n", c.Database.MigrationsPath))
	b.WriteString(c.Redis.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Payment.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// maskURL hides the password part of a connection URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid url"
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
