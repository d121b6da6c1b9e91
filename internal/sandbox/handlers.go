package sandbox

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/settlement-go/internal/middleware"
	"github.com/mmynk/settlement-go/internal/models"
	"github.com/mmynk/settlement-go/internal/storage"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	// same rules the client builder enforces
	b := settlement.NewSettlementAccountBuilder().SetNickname(req.Nickname)
	if _, err := b.SetType(req.Type); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.AccountNumber != nil {
		b.SetAccountNumber(*req.AccountNumber)
	}
	if req.IfscCode != nil {
		b.SetIfscCode(*req.IfscCode)
	}
	if req.AccountHolderName != nil {
		b.SetAccountHolderName(*req.AccountHolderName)
	}
	if req.VirtualAddress != nil {
		b.SetVirtualAddress(*req.VirtualAddress)
	}
	payload, err := b.Build()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.cfg.MaxAccounts > 0 {
		n, err := s.store.CountAccounts(r.Context(), merchantID)
		if err != nil {
			internalError(w, r, err)
			return
		}
		if n >= s.cfg.MaxAccounts {
			http.Error(w, "settlement account limit reached", http.StatusForbidden)
			return
		}
	}

	account := &models.Account{
		MerchantID: merchantID,
		Nickname:   payload.Nickname(),
		Type:       payload.Type(),
		Approved:   s.cfg.ApproveAccounts,
	}
	account.AccountNumber, _ = payload.AccountNumber()
	account.IfscCode, _ = payload.IfscCode()
	account.AccountHolderName, _ = payload.AccountHolderName()
	account.VirtualAddress, _ = payload.VirtualAddress()

	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, storage.ErrDuplicateAccount) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		internalError(w, r, err)
		return
	}

	slog.Info("Settlement account created",
		"merchant_id", merchantID,
		"account_id", account.ID,
		"type", account.Type,
		"approved", account.Approved,
	)
	writeJSON(w, http.StatusCreated, createAccountResponse{Account: toAccountResponse(account)})
}

func (s *Server) removeAccount(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	if err := s.store.DeleteAccount(r.Context(), merchantID, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "settlement account is invalid", http.StatusBadRequest)
			return
		}
		internalError(w, r, err)
		return
	}

	slog.Info("Settlement account removed", "merchant_id", merchantID, "account_id", accountID)
	writeJSON(w, http.StatusOK, removeAccountResponse{Success: true})
}

func (s *Server) createSettlement(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())

	var req createSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, "malformed", "malformed request body", http.StatusBadRequest)
		return
	}
	if !req.Amount.Valid || !req.Amount.Decimal.IsPositive() || req.SettlementAccountID == "" {
		s.reject(w, "invalid", "amount and settlement_account_id are required", http.StatusBadRequest)
		return
	}

	account, err := s.store.GetAccount(r.Context(), merchantID, req.SettlementAccountID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.reject(w, "invalid_account", "settlement account is invalid", http.StatusBadRequest)
		return
	case err != nil:
		internalError(w, r, err)
		return
	case account.Removed():
		s.reject(w, "invalid_account", "settlement account is invalid", http.StatusBadRequest)
		return
	case !account.Approved:
		s.reject(w, "not_approved", "settlement account is not approved", http.StatusNotAcceptable)
		return
	}

	stl := &models.Settlement{
		MerchantID:          merchantID,
		SettlementAccountID: account.ID,
		Amount:              req.Amount.Decimal,
	}
	if req.Remarks != nil {
		stl.Remarks = *req.Remarks
	}
	if req.TxnID != nil {
		stl.TxnID = *req.TxnID
	}

	err = s.store.CreateSettlement(r.Context(), stl, s.limits())
	switch {
	case errors.Is(err, storage.ErrDuplicateTxn):
		s.reject(w, "duplicate_txn", err.Error(), http.StatusConflict)
		return
	case errors.Is(err, storage.ErrInsufficientBalance):
		s.reject(w, "insufficient_balance", err.Error(), http.StatusPaymentRequired)
		return
	case errors.Is(err, storage.ErrDailyLimit):
		s.reject(w, "daily_limit", err.Error(), http.StatusForbidden)
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	s.outcomes.WithLabelValues("created").Inc()
	slog.Info("Settlement created",
		"merchant_id", merchantID,
		"settlement_id", stl.ID,
		"amount", stl.Amount.String(),
	)
	writeJSON(w, http.StatusCreated, toSettlementResponse(stl))
}

func (s *Server) reject(w http.ResponseWriter, outcome, msg string, status int) {
	s.outcomes.WithLabelValues(outcome).Inc()
	http.Error(w, msg, status)
}

func (s *Server) getSettlement(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())
	stl, err := s.store.GetSettlement(r.Context(), merchantID, chi.URLParam(r, "settlementID"))
	s.respondAndAdvance(w, r, stl, err)
}

func (s *Server) getSettlementByTxnID(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())
	stl, err := s.store.GetSettlementByTxnID(r.Context(), merchantID, chi.URLParam(r, "txnID"))
	s.respondAndAdvance(w, r, stl, err)
}

// respondAndAdvance returns the settlement as it was read and moves the stored
// record one step, so each poll observes the next status.
func (s *Server) respondAndAdvance(w http.ResponseWriter, r *http.Request, stl *models.Settlement, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "settlement not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	if !stl.Status.IsTerminal() {
		next, err := s.store.AdvanceSettlement(r.Context(), stl.MerchantID, stl.ID)
		if err != nil {
			slog.Warn("Failed to advance settlement", "settlement_id", stl.ID, "error", err)
		} else {
			slog.Debug("Settlement advanced", "settlement_id", stl.ID, "from", stl.Status, "to", next.Status)
		}
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(stl))
}

func (s *Server) listSettlements(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.list(w, r, filter)
}

func (s *Server) listAccountSettlements(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())
	accountID := chi.URLParam(r, "accountID")

	if _, err := s.store.GetAccount(r.Context(), merchantID, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "settlement account is invalid", http.StatusBadRequest)
			return
		}
		internalError(w, r, err)
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.SettlementAccountID = accountID
	s.list(w, r, filter)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, filter storage.ListFilter) {
	merchantID := middleware.GetMerchantID(r.Context())
	settlements, err := s.store.ListSettlements(r.Context(), merchantID, filter)
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := listResponse{Settlements: make([]settlementResponse, 0, len(settlements))}
	for _, stl := range settlements {
		resp.Settlements = append(resp.Settlements, toSettlementResponse(stl))
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseListFilter(r *http.Request) (storage.ListFilter, error) {
	q := r.URL.Query()
	filter := storage.ListFilter{SettlementAccountID: q.Get("settlement_account_id")}

	if raw := q.Get("status"); raw != "" {
		switch status := settlement.Status(raw); status {
		case settlement.StatusPending, settlement.StatusProcessing, settlement.StatusCompleted, settlement.StatusFailed:
			filter.Status = status
		default:
			return storage.ListFilter{}, errors.New("unknown status " + strconv.Quote(raw))
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return storage.ListFilter{}, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	merchantID := middleware.GetMerchantID(r.Context())
	balance, err := s.store.Balance(r.Context(), merchantID, s.cfg.OpeningBalance)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: json.Number(balance.String())})
}
