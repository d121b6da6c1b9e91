package settlement

import (
	"errors"
	"net/http"
)

// Operation names a client call whose failures are classified.
type Operation string

const (
	OpCreateSettlementAccount Operation = "createSettlementAccount"
	OpCreateSettlement        Operation = "createSettlement"
	OpRemoveSettlementAccount Operation = "removeSettlementAccount"
	OpGetSettlementByID       Operation = "getSettlementById"
	OpGetSettlementByTxnID    Operation = "getSettlementByTxnId"
	OpGetAllSettlements       Operation = "getAllSettlements"
	OpGetSettlementsByAccount Operation = "getSettlementsByAccount"
	OpGetBalance              Operation = "getBalance"
)

// classification is the per-operation status table. A status only has a
// meaning in the context of the operation that received it.
var classification = map[Operation]map[int]Kind{
	OpCreateSettlementAccount: {
		http.StatusBadRequest:          KindInvalidAccount,
		http.StatusUnauthorized:        KindInvalidAccount,
		http.StatusForbidden:           KindLimitExceeded,
		http.StatusUnprocessableEntity: KindDuplicationAccount,
	},
	OpCreateSettlement: {
		http.StatusBadRequest:      KindInvalidAccount,
		http.StatusPaymentRequired: KindInsufficientAccountBalance,
		http.StatusForbidden:       KindLimitExceeded,
		http.StatusNotAcceptable:   KindAccountNotApproved,
		http.StatusConflict:        KindDuplicateTransaction,
	},
	OpRemoveSettlementAccount: {
		http.StatusBadRequest: KindInvalidAccount,
	},
	OpGetSettlementByID: {
		http.StatusNotFound: KindSettlementNotFound,
	},
	OpGetSettlementByTxnID: {
		http.StatusNotFound: KindSettlementNotFound,
	},
	OpGetSettlementsByAccount: {
		http.StatusBadRequest: KindInvalidAccount,
	},
}

// anyOperation applies when the operation's own table has no entry.
var anyOperation = map[int]Kind{
	http.StatusUnauthorized: KindUnauthorizedAccess,
}

// Classify turns a generic server error into the domain error op defines for
// its status. Anything else, including errors that are not generic server
// errors, is returned unchanged.
func Classify(op Operation, err error) error {
	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != KindServer {
		return err
	}

	kind, ok := classification[op][serr.HTTPStatus]
	if !ok {
		kind, ok = anyOperation[serr.HTTPStatus]
	}
	if !ok {
		return err
	}

	msg := defaultMessages[kind]
	if kind == KindLimitExceeded && serr.Message != "" {
		msg = serr.Message
	}

	return &Error{
		Kind:       kind,
		HTTPStatus: serr.HTTPStatus,
		Message:    msg,
		Err:        serr.Err,
	}
}
