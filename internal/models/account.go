package models

import "github.com/mmynk/settlement-go/pkg/settlement"

// Account is a registered payout destination.
type Account struct {
	ID         string
	MerchantID string
	Nickname   string
	Type       settlement.AccountType

	// Bank account fields, empty for VPA accounts.
	AccountNumber     string
	IfscCode          string
	AccountHolderName string

	// VirtualAddress is set only for VPA accounts.
	VirtualAddress string

	// Approved accounts can receive settlements.
	Approved bool

	CreatedAt int64

	// DeletedAt is non-zero once the account was removed. Removed accounts
	// stay in the table so their settlements can still be resolved.
	DeletedAt int64
}

// Removed reports whether the account was deleted.
func (a *Account) Removed() bool {
	return a.DeletedAt != 0
}
