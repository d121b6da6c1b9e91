package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/settlement-go/pkg/settlement"
)

// Settlement is a payout recorded by the sandbox.
type Settlement struct {
	// ID is the server-assigned identifier (stl_<uuid>).
	ID string

	// MerchantID owns the settlement; every lookup is scoped by it.
	MerchantID string

	// SettlementAccountID is the destination account.
	SettlementAccountID string

	// Amount is always positive.
	Amount decimal.Decimal

	// Remarks is an optional free-text note.
	Remarks string

	// TxnID is the caller's idempotency key, unique per merchant when set.
	TxnID string

	// Status follows pending → processing → completed | failed.
	Status settlement.Status

	CreatedAt int64
	UpdatedAt int64
}

// Next returns the status a settlement moves to on its next step.
// accountRemoved decides how a processing settlement ends.
func Next(status settlement.Status, accountRemoved bool) settlement.Status {
	switch status {
	case settlement.StatusPending:
		return settlement.StatusProcessing
	case settlement.StatusProcessing:
		if accountRemoved {
			return settlement.StatusFailed
		}
		return settlement.StatusCompleted
	default:
		return status
	}
}
