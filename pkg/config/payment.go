package config

import (
	"fmt"
	"strings"
	"time"
)

// PaymentConfig configures the outbound payment provider client.
type PaymentConfig struct {
	BaseURL   string               `koanf:"baseurl"`
	SecretKey string               `koanf:"secretkey"`
	ReturnURL string               `koanf:"returnurl"`
	Timeout   time.Duration        `koanf:"timeout"`
	Breaker   CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	ErrorRatePercent    int           `koanf:"errorratepercent"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

// String returns a string representation of the payment configuration.
// The secret key is never printed.
func (c *PaymentConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Payment ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  returnurl: %s\n", c.ReturnURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  circuitbreaker.consecutivefailures: %d\n", c.Breaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  circuitbreaker.errorratepercent: %d\n", c.Breaker.ErrorRatePercent))
	b.WriteString(fmt.Sprintf("  circuitbreaker.opentimeout: %v\n", c.Breaker.OpenTimeout))
	return b.String()
}

func (c *PaymentConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("payment provider base URL is not configured")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("payment provider secret key is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("payment provider timeout is not configured")
	}
	if c.Breaker.ErrorRatePercent < 0 || c.Breaker.ErrorRatePercent > 100 {
		return fmt.Errorf("circuitbreaker.errorratepercent must be between 0 and 100")
	}
	return nil
}
