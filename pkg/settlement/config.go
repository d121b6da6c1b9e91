package settlement

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// DefaultTimeout bounds every request when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "settlement-go/1"

	EnvToken   = "SETTLEMENT_API_TOKEN"
	EnvBaseURL = "SETTLEMENT_BASE_URL"
	EnvTimeout = "SETTLEMENT_TIMEOUT"
)

var (
	ErrMissingToken   = errors.New("settlement: api token is required")
	ErrMissingBaseURL = errors.New("settlement: base url is required")
)

// Config holds what a Client needs to reach the service. It is read once,
// at construction.
type Config struct {
	Token   string
	BaseURL string
	// Timeout applies to the default HTTP client. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Validate reports whether the required values are present.
func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Timeout < 0 {
		return fmt.Errorf("settlement: timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// ConfigFromEnv builds a Config from SETTLEMENT_API_TOKEN,
// SETTLEMENT_BASE_URL and SETTLEMENT_TIMEOUT.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Token:   getEnv(EnvToken, ""),
		BaseURL: getEnv(EnvBaseURL, ""),
	}

	if raw := getEnv(EnvTimeout, ""); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("settlement: invalid %s %q: %w", EnvTimeout, raw, err)
		}
		cfg.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
