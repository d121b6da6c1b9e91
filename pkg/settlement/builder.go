package settlement

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementBuilder accumulates the fields of a new settlement. Nothing is
// checked until Build.
type SettlementBuilder struct {
	amount              decimal.Decimal
	remarks             *string
	settlementAccountID string
	txnID               *string
}

// NewSettlementBuilder returns an empty builder.
func NewSettlementBuilder() *SettlementBuilder {
	return &SettlementBuilder{}
}

// SetAmount sets the payout amount; Build requires it to be positive.
func (b *SettlementBuilder) SetAmount(amount decimal.Decimal) *SettlementBuilder {
	b.amount = amount
	return b
}

// SetRemarks sets a free-text note sent with the settlement.
func (b *SettlementBuilder) SetRemarks(remarks string) *SettlementBuilder {
	b.remarks = &remarks
	return b
}

// SetTxnID sets the idempotency key; see NewTxnID.
func (b *SettlementBuilder) SetTxnID(txnID string) *SettlementBuilder {
	b.txnID = &txnID
	return b
}

// SetSettlementAccountID sets the destination account; Build requires it.
func (b *SettlementBuilder) SetSettlementAccountID(id string) *SettlementBuilder {
	b.settlementAccountID = id
	return b
}

// Build returns the payload, or a *ValidationError if the amount is not
// positive or the settlement account is missing.
func (b *SettlementBuilder) Build() (SettlementPayload, error) {
	if !b.amount.IsPositive() || b.settlementAccountID == "" {
		return SettlementPayload{}, &ValidationError{Message: "required fields are missing for settlement"}
	}

	return SettlementPayload{
		amount:              b.amount,
		remarks:             cloneString(b.remarks),
		settlementAccountID: b.settlementAccountID,
		txnID:               cloneString(b.txnID),
	}, nil
}

// SettlementPayload is the body of POST /settlements. The zero value is
// never returned by a successful Build.
type SettlementPayload struct {
	amount              decimal.Decimal
	remarks             *string
	settlementAccountID string
	txnID               *string
}

func (p SettlementPayload) Amount() decimal.Decimal     { return p.amount }
func (p SettlementPayload) SettlementAccountID() string { return p.settlementAccountID }

func (p SettlementPayload) Remarks() (string, bool) { return derefString(p.remarks) }
func (p SettlementPayload) TxnID() (string, bool)   { return derefString(p.txnID) }

// MarshalJSON emits every key; unset optionals are null.
func (p SettlementPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount              json.Number `json:"amount"`
		Remarks             *string     `json:"remarks"`
		SettlementAccountID string      `json:"settlement_account_id"`
		TxnID               *string     `json:"txnId"`
	}{
		Amount:              json.Number(p.amount.String()),
		Remarks:             p.remarks,
		SettlementAccountID: p.settlementAccountID,
		TxnID:               p.txnID,
	})
}

// NewTxnID returns a fresh idempotency key for SetTxnID.
func NewTxnID() string {
	return "txn_" + uuid.NewString()
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func derefString(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
