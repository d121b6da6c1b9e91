// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/settlement-go/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
// The path ":memory:" opens a private in-memory database.
func New(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: keeps ":memory:" a single database and serializes the
	// balance read-modify-write in CreateSettlement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Balance returns the merchant's balance, seeding it with opening on first use.
func (s *SQLiteStore) Balance(ctx context.Context, merchantID string, opening decimal.Decimal) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := balanceTx(ctx, tx, merchantID, opening)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, nil
}

func balanceTx(ctx context.Context, tx *sql.Tx, merchantID string, opening decimal.Decimal) (decimal.Decimal, error) {
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO balances (merchant_id, balance) VALUES (?, ?)",
		merchantID, opening.String(),
	); err != nil {
		return decimal.Zero, fmt.Errorf("failed to seed balance: %w", err)
	}

	var raw string
	if err := tx.QueryRowContext(ctx,
		"SELECT balance FROM balances WHERE merchant_id = ?", merchantID,
	).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for merchant %s: %w", merchantID, err)
	}
	return balance, nil
}

func setBalanceTx(ctx context.Context, tx *sql.Tx, merchantID string, balance decimal.Decimal) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE balances SET balance = ? WHERE merchant_id = ?",
		balance.String(), merchantID,
	); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
