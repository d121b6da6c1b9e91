package settlement

import (
	"errors"
	"fmt"
)

// Kind identifies a class of server-originated failure.
type Kind string

const (
	// KindServer is the generic fallback for unclassified failures.
	KindServer                     Kind = "server_error"
	KindUnauthorizedAccess         Kind = "unauthorized_access"
	KindInvalidAccount             Kind = "invalid_account"
	KindDuplicationAccount         Kind = "duplication_account"
	KindLimitExceeded              Kind = "limit_exceeded"
	KindInsufficientAccountBalance Kind = "insufficient_account_balance"
	KindAccountNotApproved         Kind = "account_not_approved"
	KindDuplicateTransaction       Kind = "duplicate_transaction"
	KindSettlementNotFound         Kind = "settlement_not_found"
)

var defaultMessages = map[Kind]string{
	KindUnauthorizedAccess:         "unauthorized access to the settlement account",
	KindInvalidAccount:             "the provided settlement account is invalid or does not exist",
	KindDuplicationAccount:         "an account with the same credentials already exists",
	KindLimitExceeded:              "your limits have exceeded, you cannot make this settlement",
	KindInsufficientAccountBalance: "insufficient balance to complete the settlement",
	KindAccountNotApproved:         "the settlement account has not been approved yet",
	KindDuplicateTransaction:       "this settlement transaction has already been processed",
	KindSettlementNotFound:         "settlement not found",
}

// DefaultMessage returns the fixed message carried by errors of kind k.
// KindServer has none; its message is whatever the server sent.
func DefaultMessage(k Kind) string {
	return defaultMessages[k]
}

// Error is a failure reported by, or while talking to, the settlement service.
type Error struct {
	Kind Kind
	// HTTPStatus is the response status, or 0 when no response was received.
	HTTPStatus int
	// Message is the default message of Kind, or for KindServer and a
	// server-worded KindLimitExceeded the response body with surrounding
	// whitespace trimmed.
	Message string
	// Err is the transport-level cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.HTTPStatus == 0 {
		return fmt.Sprintf("settlement: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("settlement: %s (%d): %s", e.Kind, e.HTTPStatus, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so the exported
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrServer                     = &Error{Kind: KindServer}
	ErrUnauthorizedAccess         = &Error{Kind: KindUnauthorizedAccess}
	ErrInvalidAccount             = &Error{Kind: KindInvalidAccount}
	ErrDuplicationAccount         = &Error{Kind: KindDuplicationAccount}
	ErrLimitExceeded              = &Error{Kind: KindLimitExceeded}
	ErrInsufficientAccountBalance = &Error{Kind: KindInsufficientAccountBalance}
	ErrAccountNotApproved         = &Error{Kind: KindAccountNotApproved}
	ErrDuplicateTransaction       = &Error{Kind: KindDuplicateTransaction}
	ErrSettlementNotFound         = &Error{Kind: KindSettlementNotFound}
)

// ErrInvalidPayload matches every *ValidationError.
var ErrInvalidPayload = errors.New("settlement: invalid payload")

// ErrMalformedResponse is wrapped when a successful response cannot be
// decoded or lacks a field the operation returns.
var ErrMalformedResponse = errors.New("settlement: malformed response")

// ValidationError is returned by builders when a payload cannot be built.
// It never involves the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "settlement: " + e.Message
	}
	return fmt.Sprintf("settlement: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
