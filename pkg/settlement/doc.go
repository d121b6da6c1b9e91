// Package settlement is a client for the remote settlement service.
//
// It registers payout accounts, initiates settlements against them, reads
// settlement status and the merchant balance.
//
// # Usage
//
//	cfg, err := settlement.ConfigFromEnv()
//	client, err := settlement.New(cfg)
//
//	payload := settlement.NewSettlementBuilder().
//		SetAmount(decimal.RequireFromString("100.50")).
//		SetSettlementAccountID("acc_1")
//	id, err := client.CreateSettlement(ctx, payload)
//	switch {
//	case errors.Is(err, settlement.ErrInsufficientAccountBalance):
//	case errors.Is(err, settlement.ErrDuplicateTransaction):
//	}
//
// # Errors
//
// Builders fail locally with a *ValidationError before any request is sent.
// Everything the server rejects surfaces as an *Error whose Kind depends on
// both the HTTP status and the operation: a 403 is [KindLimitExceeded] when
// creating a settlement but a plain [KindServer] error elsewhere. Statuses
// without a mapping stay [KindServer] and keep the original status and body.
//
// # Snapshots
//
// GetSettlementByID and GetSettlementByTxnID return a *Settlement snapshot.
// The status helpers (IsPending, IsCompleted, ...) are methods on that
// snapshot and never touch the network. A Client also retains the last
// snapshot it fetched; concurrent fetches on one Client race on which result
// is retained, so use one Client per flow or serialize fetches when the
// retained snapshot matters.
//
// Nothing is retried. Bound every call with the Config timeout or a context
// deadline.
package settlement
