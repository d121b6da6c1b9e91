package settlement

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the server-driven lifecycle of a settlement:
// pending → processing → completed | failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Settlement is a snapshot of a payout as last reported by the server. It
// holds no pointers, so a copy is independent of the original. The zero
// time means the server sent no timestamp.
type Settlement struct {
	ID                  string          `json:"id"`
	Status              Status          `json:"status"`
	Amount              decimal.Decimal `json:"amount"`
	SettlementAccountID string          `json:"settlement_account_id"`
	Remarks             string          `json:"remarks,omitempty"`
	TxnID               string          `json:"txnId,omitempty"`
	CreatedAt           time.Time       `json:"created_at,omitzero"`
	UpdatedAt           time.Time       `json:"updated_at,omitzero"`
}

// The predicates below are nil-safe: a nil snapshot is in no state.

func (s *Settlement) IsPending() bool    { return s.hasStatus(StatusPending) }
func (s *Settlement) IsProcessing() bool { return s.hasStatus(StatusProcessing) }
func (s *Settlement) IsCompleted() bool  { return s.hasStatus(StatusCompleted) }
func (s *Settlement) IsFailed() bool     { return s.hasStatus(StatusFailed) }

func (s *Settlement) hasStatus(status Status) bool {
	return s != nil && s.Status == status
}

// GetTxnID returns the caller-supplied idempotency key, if the snapshot has one.
func (s *Settlement) GetTxnID() (string, bool) {
	if s == nil || s.TxnID == "" {
		return "", false
	}
	return s.TxnID, true
}

// AccountType is the kind of payout destination.
type AccountType string

const (
	AccountTypeVPA         AccountType = "vpa"
	AccountTypeBankAccount AccountType = "bank_account"
)

// ParseAccountType accepts exactly "vpa" and "bank_account".
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountTypeVPA, AccountTypeBankAccount:
		return t, nil
	default:
		return "", &ValidationError{Field: "type", Message: "invalid account type " + strconv.Quote(s)}
	}
}

// Filters are passed verbatim as query parameters when listing settlements,
// e.g. {"status": "pending"}.
type Filters map[string]string

// Values converts f to query values. Empty values are dropped.
func (f Filters) Values() url.Values {
	v := make(url.Values, len(f))
	for k, val := range f {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

type createSettlementResponse struct {
	ID string `json:"id"`
}

type createAccountResponse struct {
	Account struct {
		ID string `json:"id"`
	} `json:"account"`
}

type removeAccountResponse struct {
	Success bool `json:"success"`
}

type listResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type balanceResponse struct {
	Balance *decimal.Decimal `json:"balance"`
}
