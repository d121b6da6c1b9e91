package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/shopspring/decimal"
)

// Client exposes the settlement operations for one merchant token.
//
// Every method performs at most one request and blocks until it completes.
// The Client retains the last settlement fetched by GetSettlementByID or
// GetSettlementByTxnID. Reads of that snapshot are synchronized, but when
// fetches run concurrently on one Client it is undefined which result is
// retained and a predicate read during a fetch may see the previous one.
// Prefer the *Settlement returned by the fetch when that matters.
type Client struct {
	exec *Executor

	mu       sync.RWMutex
	snapshot *Settlement
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	userAgent  string
}

// WithHTTPClient replaces the default HTTP client. Config.Timeout is not
// applied to a client supplied here.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// New returns a Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	o := clientOptions{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		return nil, errors.New("settlement: http client must not be nil")
	}

	exec := NewExecutor(o.httpClient, cfg.BaseURL, cfg.Token)
	exec.userAgent = o.userAgent

	return &Client{exec: exec}, nil
}

// CreateSettlement builds b and initiates the settlement, returning its id.
func (c *Client) CreateSettlement(ctx context.Context, b *SettlementBuilder) (string, error) {
	payload, err := b.Build()
	if err != nil {
		return "", err
	}

	var resp createSettlementResponse
	if err := c.call(ctx, OpCreateSettlement, Request{Method: http.MethodPost, Path: "/settlements", Body: payload}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", missingField(OpCreateSettlement, "id")
	}
	return resp.ID, nil
}

// CreateSettlementAccount builds b and registers the account, returning its id.
func (c *Client) CreateSettlementAccount(ctx context.Context, b *SettlementAccountBuilder) (string, error) {
	payload, err := b.Build()
	if err != nil {
		return "", err
	}

	var resp createAccountResponse
	if err := c.call(ctx, OpCreateSettlementAccount, Request{Method: http.MethodPost, Path: "/settlements/account", Body: payload}, &resp); err != nil {
		return "", err
	}
	if resp.Account.ID == "" {
		return "", missingField(OpCreateSettlementAccount, "account.id")
	}
	return resp.Account.ID, nil
}

// RemoveSettlementAccount deletes the account. It reports the server's
// success flag, false when the response has none.
func (c *Client) RemoveSettlementAccount(ctx context.Context, accountID string) (bool, error) {
	var resp removeAccountResponse
	req := Request{Method: http.MethodDelete, Path: "/settlements/account/" + url.PathEscape(accountID)}
	if err := c.call(ctx, OpRemoveSettlementAccount, req, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// GetSettlementByID fetches a settlement and retains it as the snapshot.
// A failed fetch leaves the previous snapshot in place.
func (c *Client) GetSettlementByID(ctx context.Context, id string) (*Settlement, error) {
	return c.fetch(ctx, OpGetSettlementByID, "/settlements/"+url.PathEscape(id))
}

// GetSettlementByTxnID is GetSettlementByID keyed by the idempotency key.
func (c *Client) GetSettlementByTxnID(ctx context.Context, txnID string) (*Settlement, error) {
	return c.fetch(ctx, OpGetSettlementByTxnID, "/settlements/txnId/"+url.PathEscape(txnID))
}

// GetAllSettlements lists settlements matching filters. The snapshot is not
// touched.
func (c *Client) GetAllSettlements(ctx context.Context, filters Filters) ([]Settlement, error) {
	var resp listResponse
	req := Request{Method: http.MethodGet, Path: "/settlements", Query: filters.Values()}
	if err := c.call(ctx, OpGetAllSettlements, req, &resp); err != nil {
		return nil, err
	}
	return resp.Settlements, nil
}

// GetSettlementsByAccount lists the settlements made to one account.
func (c *Client) GetSettlementsByAccount(ctx context.Context, accountID string) ([]Settlement, error) {
	var resp listResponse
	req := Request{Method: http.MethodGet, Path: "/settlements/account/" + url.PathEscape(accountID)}
	if err := c.call(ctx, OpGetSettlementsByAccount, req, &resp); err != nil {
		return nil, err
	}
	return resp.Settlements, nil
}

// GetBalance returns the merchant's available balance.
func (c *Client) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	var resp balanceResponse
	if err := c.call(ctx, OpGetBalance, Request{Method: http.MethodGet, Path: "/balance"}, &resp); err != nil {
		return decimal.Zero, err
	}
	if resp.Balance == nil {
		return decimal.Zero, missingField(OpGetBalance, "balance")
	}
	return *resp.Balance, nil
}

// Snapshot returns a copy of the last fetched settlement, or nil.
func (c *Client) Snapshot() *Settlement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil
	}
	s := *c.snapshot
	return &s
}

func (c *Client) IsPending() bool    { return c.Snapshot().IsPending() }
func (c *Client) IsProcessing() bool { return c.Snapshot().IsProcessing() }
func (c *Client) IsCompleted() bool  { return c.Snapshot().IsCompleted() }
func (c *Client) IsFailed() bool     { return c.Snapshot().IsFailed() }

// TxnID returns the snapshot's idempotency key, if any.
func (c *Client) TxnID() (string, bool) {
	return c.Snapshot().GetTxnID()
}

func (c *Client) fetch(ctx context.Context, op Operation, path string) (*Settlement, error) {
	var s Settlement
	if err := c.call(ctx, op, Request{Method: http.MethodGet, Path: path}, &s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, missingField(op, "id")
	}

	retained := s
	c.mu.Lock()
	c.snapshot = &retained
	c.mu.Unlock()

	return &s, nil
}

// call executes req, classifies a failure under op and decodes the body into out.
func (c *Client) call(ctx context.Context, op Operation, req Request, out any) error {
	raw, err := c.exec.Do(ctx, req)
	if err != nil {
		return Classify(op, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %w", ErrMalformedResponse, op, err)
	}
	return nil
}

func missingField(op Operation, field string) error {
	return fmt.Errorf("%w: %s response has no %s field", ErrMalformedResponse, op, field)
}

// The functions below build a throwaway Client from cfg for a single call.
// Their results never outlive the call, so no snapshot is kept.

// CreateNewSettlement is Client.CreateSettlement on a Client built from cfg.
func CreateNewSettlement(ctx context.Context, cfg Config, b *SettlementBuilder) (string, error) {
	c, err := New(cfg)
	if err != nil {
		return "", err
	}
	return c.CreateSettlement(ctx, b)
}

// CreateAccount is Client.CreateSettlementAccount on a Client built from cfg.
func CreateAccount(ctx context.Context, cfg Config, b *SettlementAccountBuilder) (string, error) {
	c, err := New(cfg)
	if err != nil {
		return "", err
	}
	return c.CreateSettlementAccount(ctx, b)
}

// RemoveAccount is Client.RemoveSettlementAccount on a Client built from cfg.
func RemoveAccount(ctx context.Context, cfg Config, accountID string) (bool, error) {
	c, err := New(cfg)
	if err != nil {
		return false, err
	}
	return c.RemoveSettlementAccount(ctx, accountID)
}

// Find fetches one settlement with a Client built from cfg.
func Find(ctx context.Context, cfg Config, id string) (*Settlement, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.GetSettlementByID(ctx, id)
}

// FindByTxnID is Find keyed by the idempotency key.
func FindByTxnID(ctx context.Context, cfg Config, txnID string) (*Settlement, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.GetSettlementByTxnID(ctx, txnID)
}

// GetAllSettlements is Client.GetAllSettlements on a Client built from cfg.
func GetAllSettlements(ctx context.Context, cfg Config, filters Filters) ([]Settlement, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.GetAllSettlements(ctx, filters)
}

// GetSettlementsByAccount is Client.GetSettlementsByAccount on a Client
// built from cfg.
func GetSettlementsByAccount(ctx context.Context, cfg Config, accountID string) ([]Settlement, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.GetSettlementsByAccount(ctx, accountID)
}

// GetBalance is Client.GetBalance on a Client built from cfg.
func GetBalance(ctx context.Context, cfg Config) (decimal.Decimal, error) {
	c, err := New(cfg)
	if err != nil {
		return decimal.Zero, err
	}
	return c.GetBalance(ctx)
}
