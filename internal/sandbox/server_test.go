package sandbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mmynk/settlement-go/internal/auth"
	"github.com/mmynk/settlement-go/internal/storage/sqlite"
	"github.com/mmynk/settlement-go/pkg/settlement"
)

type SandboxTestSuite struct {
	suite.Suite
	ctx    context.Context
	jwt    *auth.JWTManager
	server *httptest.Server
	client *settlement.Client
}

func TestSandboxTestSuite(t *testing.T) {
	suite.Run(t, new(SandboxTestSuite))
}

func (s *SandboxTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.jwt = auth.NewJWTManager("test-secret", 0)
	s.server, s.client = s.sandbox(nil)
}

// sandbox starts a server over a fresh in-memory ledger and returns a client
// authenticated as merchant_1.
func (s *SandboxTestSuite) sandbox(mutate func(*Config)) (*httptest.Server, *settlement.Client) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.OpeningBalance = decimal.NewFromInt(1000)
	cfg.DailyLimit = decimal.NewFromInt(600)
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := sqlite.New(":memory:")
	s.Require().NoError(err)
	s.T().Cleanup(func() { store.Close() })

	srv, err := NewServer(cfg, store, s.jwt)
	s.Require().NoError(err)

	server := httptest.NewServer(srv.Routes())
	s.T().Cleanup(server.Close)

	return server, s.clientFor(server, "merchant_1")
}

func (s *SandboxTestSuite) clientFor(server *httptest.Server, merchantID string) *settlement.Client {
	token, err := s.jwt.Generate(merchantID)
	s.Require().NoError(err)

	client, err := settlement.New(
		settlement.Config{Token: token, BaseURL: server.URL},
		settlement.WithHTTPClient(server.Client()),
	)
	s.Require().NoError(err)
	return client
}

func vpa(address string) *settlement.SettlementAccountBuilder {
	b, _ := settlement.NewSettlementAccountBuilder().SetNickname("upi").SetType("vpa")
	return b.SetVirtualAddress(address)
}

func payout(accountID, amount string) *settlement.SettlementBuilder {
	return settlement.NewSettlementBuilder().
		SetAmount(decimal.RequireFromString(amount)).
		SetSettlementAccountID(accountID)
}

func (s *SandboxTestSuite) createAccount(client *settlement.Client, address string) string {
	id, err := client.CreateSettlementAccount(s.ctx, vpa(address))
	s.Require().NoError(err)
	s.Require().NotEmpty(id)
	return id
}

func (s *SandboxTestSuite) TestHealthzIsPublic() {
	resp, err := http.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *SandboxTestSuite) TestRejectsUnknownToken() {
	other := auth.NewJWTManager("someone-else", 0)
	token, err := other.Generate("merchant_1")
	s.Require().NoError(err)

	client, err := settlement.New(settlement.Config{Token: token, BaseURL: s.server.URL})
	s.Require().NoError(err)

	_, err = client.GetBalance(s.ctx)
	s.ErrorIs(err, settlement.ErrUnauthorizedAccess)
	s.Equal(http.StatusUnauthorized, err.(*settlement.Error).HTTPStatus)
}

func (s *SandboxTestSuite) TestSettlementLifecycle() {
	accountID := s.createAccount(s.client, "shop@upi")

	id, err := s.client.CreateSettlement(s.ctx, payout(accountID, "100.50").SetTxnID("txn_1").SetRemarks("march"))
	s.Require().NoError(err)

	balance, err := s.client.GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.RequireFromString("899.50")), "balance = %s", balance)

	stl, err := s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(stl.IsPending())
	s.True(s.client.IsPending())
	s.True(stl.Amount.Equal(decimal.RequireFromString("100.50")))
	s.Equal(accountID, stl.SettlementAccountID)
	s.Equal("march", stl.Remarks)
	txnID, ok := s.client.TxnID()
	s.True(ok)
	s.Equal("txn_1", txnID)

	stl, err = s.client.GetSettlementByTxnID(s.ctx, "txn_1")
	s.Require().NoError(err)
	s.True(stl.IsProcessing())
	s.True(s.client.IsProcessing())

	stl, err = s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(stl.IsCompleted())
	s.True(s.client.IsCompleted())
	s.False(s.client.IsFailed())

	_, err = s.client.GetSettlementByID(s.ctx, "stl_missing")
	s.ErrorIs(err, settlement.ErrSettlementNotFound)
	s.True(s.client.IsCompleted(), "a failed fetch keeps the last snapshot")
}

func (s *SandboxTestSuite) TestCreateSettlementRules() {
	accountID := s.createAccount(s.client, "shop@upi")

	_, err := s.client.CreateSettlement(s.ctx, payout(accountID, "10").SetTxnID("txn_dup"))
	s.Require().NoError(err)

	s.Run("duplicate txnId", func() {
		_, err := s.client.CreateSettlement(s.ctx, payout(accountID, "10").SetTxnID("txn_dup"))
		s.ErrorIs(err, settlement.ErrDuplicateTransaction)
	})

	s.Run("insufficient balance", func() {
		_, err := s.client.CreateSettlement(s.ctx, payout(accountID, "5000"))
		s.ErrorIs(err, settlement.ErrInsufficientAccountBalance)
	})

	s.Run("daily limit keeps the server message", func() {
		_, err := s.client.CreateSettlement(s.ctx, payout(accountID, "595"))
		s.ErrorIs(err, settlement.ErrLimitExceeded)
		s.Equal("daily settlement limit exceeded", err.(*settlement.Error).Message)
	})

	s.Run("unknown account", func() {
		_, err := s.client.CreateSettlement(s.ctx, payout("acc_missing", "1"))
		s.ErrorIs(err, settlement.ErrInvalidAccount)
	})

	s.Run("rejected settlements do not move money", func() {
		balance, err := s.client.GetBalance(s.ctx)
		s.Require().NoError(err)
		s.True(balance.Equal(decimal.NewFromInt(990)), "balance = %s", balance)
	})
}

func (s *SandboxTestSuite) TestUnapprovedAccount() {
	_, client := s.sandbox(func(cfg *Config) { cfg.ApproveAccounts = false })
	accountID := s.createAccount(client, "new@upi")

	_, err := client.CreateSettlement(s.ctx, payout(accountID, "1"))
	s.ErrorIs(err, settlement.ErrAccountNotApproved)
}

func (s *SandboxTestSuite) TestAccountRules() {
	_, client := s.sandbox(func(cfg *Config) { cfg.MaxAccounts = 2 })
	first := s.createAccount(client, "one@upi")

	_, err := client.CreateSettlementAccount(s.ctx, vpa("one@upi"))
	s.ErrorIs(err, settlement.ErrDuplicationAccount)

	s.createAccount(client, "two@upi")
	_, err = client.CreateSettlementAccount(s.ctx, vpa("three@upi"))
	s.ErrorIs(err, settlement.ErrLimitExceeded)
	s.Equal("settlement account limit reached", err.(*settlement.Error).Message)

	ok, err := client.RemoveSettlementAccount(s.ctx, first)
	s.Require().NoError(err)
	s.True(ok)

	_, err = client.RemoveSettlementAccount(s.ctx, first)
	s.ErrorIs(err, settlement.ErrInvalidAccount)

	// removal frees a slot
	s.createAccount(client, "three@upi")
}

func (s *SandboxTestSuite) TestBankAccount() {
	bank := func(ifsc string) *settlement.SettlementAccountBuilder {
		b, err := settlement.NewSettlementAccountBuilder().SetNickname("salary").SetType("bank_account")
		s.Require().NoError(err)
		return b.SetAccountNumber("001122334455").SetIfscCode(ifsc).SetAccountHolderName(gofakeit.Name())
	}

	accountID, err := s.client.CreateSettlementAccount(s.ctx, bank("HDFC0000123"))
	s.Require().NoError(err)

	_, err = s.client.CreateSettlementAccount(s.ctx, bank("HDFC0000123"))
	s.ErrorIs(err, settlement.ErrDuplicationAccount)

	_, err = s.client.CreateSettlementAccount(s.ctx, bank("ICIC0000456"))
	s.NoError(err, "another branch is a different account")

	_, err = s.client.CreateSettlement(s.ctx, payout(accountID, "75"))
	s.NoError(err)
}

func (s *SandboxTestSuite) TestRemovedAccountFailsAndRefunds() {
	accountID := s.createAccount(s.client, "gone@upi")
	id, err := s.client.CreateSettlement(s.ctx, payout(accountID, "200"))
	s.Require().NoError(err)

	_, err = s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)

	_, err = s.client.RemoveSettlementAccount(s.ctx, accountID)
	s.Require().NoError(err)

	stl, err := s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(stl.IsProcessing())

	stl, err = s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(stl.IsFailed())
	s.True(s.client.IsFailed())

	balance, err := s.client.GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(1000)), "balance = %s", balance)

	_, err = s.client.CreateSettlement(s.ctx, payout(accountID, "1"))
	s.ErrorIs(err, settlement.ErrInvalidAccount)
}

func (s *SandboxTestSuite) TestListing() {
	first := s.createAccount(s.client, "first@upi")
	second := s.createAccount(s.client, "second@upi")

	id, err := s.client.CreateSettlement(s.ctx, payout(first, "10"))
	s.Require().NoError(err)
	_, err = s.client.CreateSettlement(s.ctx, payout(second, "20"))
	s.Require().NoError(err)

	// moves the first settlement to processing
	_, err = s.client.GetSettlementByID(s.ctx, id)
	s.Require().NoError(err)
	snapshot := s.client.Snapshot()

	all, err := s.client.GetAllSettlements(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 2)

	pending, err := s.client.GetAllSettlements(s.ctx, settlement.Filters{"status": "pending"})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second, pending[0].SettlementAccountID)

	limited, err := s.client.GetAllSettlements(s.ctx, settlement.Filters{"limit": "1"})
	s.Require().NoError(err)
	s.Len(limited, 1)

	byAccount, err := s.client.GetSettlementsByAccount(s.ctx, first)
	s.Require().NoError(err)
	s.Require().Len(byAccount, 1)
	s.Equal(id, byAccount[0].ID)

	_, err = s.client.GetSettlementsByAccount(s.ctx, "acc_missing")
	s.ErrorIs(err, settlement.ErrInvalidAccount)

	_, err = s.client.GetAllSettlements(s.ctx, settlement.Filters{"status": "lost"})
	s.Error(err)

	s.Equal(snapshot, s.client.Snapshot(), "listing leaves the snapshot alone")
}

func (s *SandboxTestSuite) TestMerchantsAreIsolated() {
	accountID := s.createAccount(s.client, "shop@upi")
	id, err := s.client.CreateSettlement(s.ctx, payout(accountID, "10"))
	s.Require().NoError(err)

	other := s.clientFor(s.server, "merchant_2")
	_, err = other.GetSettlementByID(s.ctx, id)
	s.ErrorIs(err, settlement.ErrSettlementNotFound)

	_, err = other.CreateSettlement(s.ctx, payout(accountID, "1"))
	s.ErrorIs(err, settlement.ErrInvalidAccount)

	balance, err := other.GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(balance.Equal(decimal.NewFromInt(1000)))
}

func (s *SandboxTestSuite) TestMetrics() {
	_, err := s.client.GetBalance(s.ctx)
	s.Require().NoError(err)

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `settlement_sandbox_http_requests_total{code="200",method="GET",route="/balance"} 1`)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SANDBOX_ADDR", ":9090")
	t.Setenv("SANDBOX_OPENING_BALANCE", "250.75")
	t.Setenv("SANDBOX_MAX_ACCOUNTS", "3")
	t.Setenv("SANDBOX_APPROVE_ACCOUNTS", "false")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.MaxAccounts != 3 || cfg.ApproveAccounts {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if !cfg.OpeningBalance.Equal(decimal.RequireFromString("250.75")) {
		t.Errorf("OpeningBalance = %s", cfg.OpeningBalance)
	}

	t.Setenv("SANDBOX_DAILY_LIMIT", "lots")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("Expected an invalid daily limit to fail")
	}
}
