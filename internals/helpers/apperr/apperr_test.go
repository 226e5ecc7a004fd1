package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", Field("amount", "amount is required"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not found", NotFound("bill"), http.StatusNotFound, "NOT_FOUND"},
		{"authorization", Authorization("Invalid authorization code"), http.StatusForbidden, "AUTHORIZATION_ERROR"},
		{"amount mismatch", AmountMismatch(decimal.RequireFromString("577.5")), http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"},
		{"transition", InvalidTransition("completed", "pending"), http.StatusConflict, "INVALID_TRANSITION"},
		{"gateway", Gateway("paymongo", errors.New("timeout")), http.StatusBadGateway, "GATEWAY_ERROR"},
		{"persistence", Persistence(errors.New("conn refused")), http.StatusServiceUnavailable, "PERSISTENCE_ERROR"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("restate: %w", Authorization("Invalid authorization code"))
	assert.True(t, Is(err, KindAuthorization))
	assert.Equal(t, "Invalid authorization code", PublicMessage(err))
}

func TestAmountMismatchCarriesExpected(t *testing.T) {
	err := AmountMismatch(decimal.RequireFromString("577.5"))
	assert.Equal(t, "577.50", err.Details["expected_amount"])
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := Persistence(errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	assert.Equal(t, "storage unavailable", PublicMessage(err))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("secret")))
}
