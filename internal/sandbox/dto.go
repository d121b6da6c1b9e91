package sandbox

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settlement-go/internal/models"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

type createSettlementRequest struct {
	Amount              decimal.NullDecimal `json:"amount"`
	Remarks             *string             `json:"remarks"`
	SettlementAccountID string              `json:"settlement_account_id"`
	TxnID               *string             `json:"txnId"`
}

type createAccountRequest struct {
	Nickname          string  `json:"nickname"`
	Type              string  `json:"type"`
	AccountNumber     *string `json:"account_number"`
	IfscCode          *string `json:"ifsc_code"`
	AccountHolderName *string `json:"account_holder_name"`
	VirtualAddress    *string `json:"virtual_address"`
}

type settlementResponse struct {
	ID                  string            `json:"id"`
	Status              settlement.Status `json:"status"`
	Amount              json.Number       `json:"amount"`
	SettlementAccountID string            `json:"settlement_account_id"`
	Remarks             *string           `json:"remarks"`
	TxnID               *string           `json:"txnId"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type accountResponse struct {
	ID        string                 `json:"id"`
	Nickname  string                 `json:"nickname"`
	Type      settlement.AccountType `json:"type"`
	Approved  bool                   `json:"approved"`
	CreatedAt time.Time              `json:"created_at"`
}

type createAccountResponse struct {
	Account accountResponse `json:"account"`
}

type listResponse struct {
	Settlements []settlementResponse `json:"settlements"`
}

type removeAccountResponse struct {
	Success bool `json:"success"`
}

type balanceResponse struct {
	Balance json.Number `json:"balance"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:                  s.ID,
		Status:              s.Status,
		Amount:              json.Number(s.Amount.String()),
		SettlementAccountID: s.SettlementAccountID,
		Remarks:             optional(s.Remarks),
		TxnID:               optional(s.TxnID),
		CreatedAt:           time.Unix(s.CreatedAt, 0).UTC(),
		UpdatedAt:           time.Unix(s.UpdatedAt, 0).UTC(),
	}
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Nickname:  a.Nickname,
		Type:      a.Type,
		Approved:  a.Approved,
		CreatedAt: time.Unix(a.CreatedAt, 0).UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
