package sandbox

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config tunes the sandbox's rules. Zero values of DailyLimit and MaxAccounts
// disable those rules.
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	// TokenTTL applies to tokens issued by the sandbox binary. Zero means
	// tokens do not expire.
	TokenTTL time.Duration

	OpeningBalance  decimal.Decimal
	DailyLimit      decimal.Decimal
	MaxAccounts     int
	ApproveAccounts bool
}

// DefaultConfig is what ConfigFromEnv starts from.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "./data/sandbox.db",
		JWTSecret:       "sandbox-secret",
		OpeningBalance:  decimal.NewFromInt(100000),
		DailyLimit:      decimal.NewFromInt(50000),
		MaxAccounts:     10,
		ApproveAccounts: true,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// ConfigFromEnv reads SANDBOX_* variables over DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Addr = getEnv("SANDBOX_ADDR", cfg.Addr)
	cfg.DBPath = getEnv("SANDBOX_DB_PATH", cfg.DBPath)
	cfg.JWTSecret = getEnv("SANDBOX_JWT_SECRET", cfg.JWTSecret)

	var err error
	if raw := os.Getenv("SANDBOX_TOKEN_TTL"); raw != "" {
		if cfg.TokenTTL, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_TOKEN_TTL %q: %w", raw, err)
		}
	}
	if raw := os.Getenv("SANDBOX_OPENING_BALANCE"); raw != "" {
		if cfg.OpeningBalance, err = decimal.NewFromString(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_OPENING_BALANCE %q: %w", raw, err)
		}
	}
	if raw := os.Getenv("SANDBOX_DAILY_LIMIT"); raw != "" {
		if cfg.DailyLimit, err = decimal.NewFromString(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_DAILY_LIMIT %q: %w", raw, err)
		}
	}
	if raw := os.Getenv("SANDBOX_MAX_ACCOUNTS"); raw != "" {
		if cfg.MaxAccounts, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_MAX_ACCOUNTS %q: %w", raw, err)
		}
	}
	if raw := os.Getenv("SANDBOX_APPROVE_ACCOUNTS"); raw != "" {
		if cfg.ApproveAccounts, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SANDBOX_APPROVE_ACCOUNTS %q: %w", raw, err)
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the sandbox cannot run with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.OpeningBalance.IsNegative() {
		return fmt.Errorf("opening balance must not be negative")
	}
	if c.DailyLimit.IsNegative() {
		return fmt.Errorf("daily limit must not be negative")
	}
	if c.MaxAccounts < 0 {
		return fmt.Errorf("max accounts must not be negative")
	}
	return nil
}
