// Package storage provides abstractions for the sandbox ledger.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settlement-go/internal/models"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateAccount    = errors.New("an account with the same credentials exists")
	ErrDuplicateTxn        = errors.New("txnId already used")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDailyLimit          = errors.New("daily settlement limit exceeded")
)

// Limits are the per-merchant money rules applied when a settlement is created.
type Limits struct {
	// OpeningBalance seeds a merchant's balance the first time it is read.
	OpeningBalance decimal.Decimal

	// DailyLimit caps the sum of non-failed settlements per UTC day.
	// Zero means no cap.
	DailyLimit decimal.Decimal
}

// ListFilter narrows ListSettlements. Zero values match everything.
type ListFilter struct {
	Status              settlement.Status
	SettlementAccountID string
	Limit               int
}

// Store defines the sandbox's persistence operations. Every method is scoped
// to one merchant.
type Store interface {
	// CreateAccount persists a new account. The ID and CreatedAt fields are
	// populated by the store. Returns ErrDuplicateAccount when a live account
	// with the same credentials exists.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccount returns an account, including removed ones.
	GetAccount(ctx context.Context, merchantID, accountID string) (*models.Account, error)

	// CountAccounts counts live accounts.
	CountAccounts(ctx context.Context, merchantID string) (int, error)

	// DeleteAccount soft-deletes a live account. Returns ErrNotFound otherwise.
	DeleteAccount(ctx context.Context, merchantID, accountID string) error

	// CreateSettlement debits the balance and records the settlement as
	// pending, atomically. Returns ErrDuplicateTxn, ErrInsufficientBalance or
	// ErrDailyLimit when a rule rejects it.
	CreateSettlement(ctx context.Context, s *models.Settlement, limits Limits) error

	GetSettlement(ctx context.Context, merchantID, settlementID string) (*models.Settlement, error)
	GetSettlementByTxnID(ctx context.Context, merchantID, txnID string) (*models.Settlement, error)
	ListSettlements(ctx context.Context, merchantID string, filter ListFilter) ([]*models.Settlement, error)

	// AdvanceSettlement moves a non-terminal settlement one step and returns
	// the updated record. A settlement that fails is refunded.
	AdvanceSettlement(ctx context.Context, merchantID, settlementID string) (*models.Settlement, error)

	// Balance returns the merchant's balance, seeding it with opening.
	Balance(ctx context.Context, merchantID string, opening decimal.Decimal) (decimal.Decimal, error)

	// Close releases any resources held by the store.
	Close() error
}
