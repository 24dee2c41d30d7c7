package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("STATE_001", "offer not active", http.StatusConflict),
			expected: "[STATE_001] offer not active",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestAuthorizationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"UsernameExists", ErrUsernameExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"AdminOnly", ErrAdminOnly(), "AUTH_004", 403},
		{"OnlyBorrower", ErrOnlyBorrower(), "AUTH_005", 403},
		{"OnlyLender", ErrOnlyLender(), "AUTH_006", 403},
		{"CallerNotAuthorized", ErrCallerNotAuthorized(), "AUTH_007", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

// Lifecycle preconditions reject with stable messages that clients and
// tests match on verbatim.
func TestStateErrorMessages(t *testing.T) {
	tests := []struct {
		err     *AppError
		message string
	}{
		{ErrOfferNotActive(), "offer not active"},
		{ErrProofNotVerified(), "invalid or unverified proof"},
		{ErrProofAlreadyUsed(), "proof already used"},
		{ErrInsufficientCollateral(), "insufficient collateral"},
		{ErrReputationTooLow(), "reputation too low"},
		{ErrLoanNotActive(), "loan not active"},
		{ErrAmountNotPositive(), "amount must be positive"},
		{ErrDurationNotPositive(), "duration must be positive"},
		{ErrOnlyBorrower(), "only borrower"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}
}

func TestTransferErrors(t *testing.T) {
	inner := fmt.Errorf("insufficient account balance")

	tests := []struct {
		name    string
		err     *AppError
		code    string
		message string
	}{
		{"ReturnExcess", ErrReturnExcessFailed(inner), "XFER_002", "failed to return excess"},
		{"PayLender", ErrPayLenderFailed(inner), "XFER_003", "failed to pay lender"},
		{"ReturnCollateral", ErrReturnCollateralFailed(inner), "XFER_004", "failed to return collateral"},
		{"Liquidation", ErrLiquidationFailed(inner), "XFER_005", "failed to liquidate collateral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.True(t, errors.Is(tt.err, inner))
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))

	oracleErr := ErrOracleUnavailable(inner)
	assert.Equal(t, "SYS_002", oracleErr.Code)
	assert.Equal(t, 502, oracleErr.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("loan")
	assert.Contains(t, err.Message, "loan")
	assert.Equal(t, "STATE_007", err.Code)
}
