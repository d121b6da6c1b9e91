package settlement

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		op     Operation
		status int
		want   Kind
	}{
		{OpCreateSettlementAccount, http.StatusBadRequest, KindInvalidAccount},
		{OpCreateSettlementAccount, http.StatusUnauthorized, KindInvalidAccount},
		{OpCreateSettlementAccount, http.StatusUnprocessableEntity, KindDuplicationAccount},
		{OpCreateSettlementAccount, http.StatusForbidden, KindLimitExceeded},
		{OpCreateSettlementAccount, http.StatusNotFound, KindServer},

		{OpCreateSettlement, http.StatusBadRequest, KindInvalidAccount},
		{OpCreateSettlement, http.StatusUnauthorized, KindUnauthorizedAccess},
		{OpCreateSettlement, http.StatusPaymentRequired, KindInsufficientAccountBalance},
		{OpCreateSettlement, http.StatusForbidden, KindLimitExceeded},
		{OpCreateSettlement, http.StatusNotAcceptable, KindAccountNotApproved},
		{OpCreateSettlement, http.StatusConflict, KindDuplicateTransaction},
		{OpCreateSettlement, http.StatusUnprocessableEntity, KindServer},
		{OpCreateSettlement, http.StatusInternalServerError, KindServer},

		{OpRemoveSettlementAccount, http.StatusBadRequest, KindInvalidAccount},
		{OpRemoveSettlementAccount, http.StatusUnauthorized, KindUnauthorizedAccess},
		{OpRemoveSettlementAccount, http.StatusNotFound, KindServer},

		{OpGetSettlementByID, http.StatusNotFound, KindSettlementNotFound},
		{OpGetSettlementByID, http.StatusUnauthorized, KindUnauthorizedAccess},
		{OpGetSettlementByID, http.StatusBadRequest, KindServer},
		{OpGetSettlementByTxnID, http.StatusNotFound, KindSettlementNotFound},

		{OpGetSettlementsByAccount, http.StatusBadRequest, KindInvalidAccount},
		{OpGetSettlementsByAccount, http.StatusNotFound, KindServer},

		{OpGetAllSettlements, http.StatusUnauthorized, KindUnauthorizedAccess},
		{OpGetAllSettlements, http.StatusBadRequest, KindServer},
		{OpGetBalance, http.StatusUnauthorized, KindUnauthorizedAccess},
		{OpGetBalance, http.StatusForbidden, KindServer},
		{OpGetBalance, 0, KindServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.op, tt.status), func(t *testing.T) {
			in := &Error{Kind: KindServer, HTTPStatus: tt.status, Message: "upstream says no"}
			got := Classify(tt.op, in)

			var e *Error
			require.True(t, errors.As(got, &e))
			assert.Equal(t, tt.want, e.Kind)
			assert.Equal(t, tt.status, e.HTTPStatus)

			switch tt.want {
			case KindServer:
				assert.Same(t, in, got, "unmapped statuses must pass through unchanged")
			case KindLimitExceeded:
				assert.Equal(t, "upstream says no", e.Message)
			default:
				assert.Equal(t, DefaultMessage(tt.want), e.Message)
			}
		})
	}
}

func TestClassify_LimitExceededWithoutBody(t *testing.T) {
	for _, op := range []Operation{OpCreateSettlement, OpCreateSettlementAccount} {
		got := Classify(op, &Error{Kind: KindServer, HTTPStatus: http.StatusForbidden})
		assert.ErrorIs(t, got, ErrLimitExceeded)
		assert.Equal(t, DefaultMessage(KindLimitExceeded), got.(*Error).Message)
	}
}

func TestClassify_LeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, Classify(OpCreateSettlement, plain))

	validation := &ValidationError{Message: "missing"}
	assert.Same(t, validation, Classify(OpCreateSettlement, validation))

	already := &Error{Kind: KindDuplicateTransaction, HTTPStatus: http.StatusConflict}
	assert.Same(t, already, Classify(OpGetSettlementByID, already))

	assert.Nil(t, Classify(OpGetBalance, nil))
}

func TestClassify_KeepsTransportCause(t *testing.T) {
	in := &Error{Kind: KindServer, HTTPStatus: http.StatusUnauthorized, Err: context.Canceled}
	got := Classify(OpGetBalance, in)
	assert.ErrorIs(t, got, ErrUnauthorizedAccess)
	assert.ErrorIs(t, got, context.Canceled)
}

func TestErrorIs_MatchesOnKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindSettlementNotFound, HTTPStatus: 404, Message: "gone"})
	assert.ErrorIs(t, err, ErrSettlementNotFound)
	assert.NotErrorIs(t, err, ErrServer)
	assert.NotErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, KindSettlementNotFound, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("other")))
	assert.Equal(t, "settlement: settlement_not_found (404): gone", errors.Unwrap(err).Error())
}
