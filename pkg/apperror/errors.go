package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authorization (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAdminOnly() *AppError {
	return New("AUTH_004", "administrator role required", http.StatusForbidden)
}

func ErrOnlyBorrower() *AppError {
	return New("AUTH_005", "only borrower", http.StatusForbidden)
}

func ErrOnlyLender() *AppError {
	return New("AUTH_006", "only lender", http.StatusForbidden)
}

func ErrCallerNotAuthorized() *AppError {
	return New("AUTH_007", "caller not authorized", http.StatusForbidden)
}

// ---- Input validation (VAL) ----

func ErrAmountNotPositive() *AppError {
	return New("VAL_001", "amount must be positive", http.StatusBadRequest)
}

func ErrDurationNotPositive() *AppError {
	return New("VAL_002", "duration must be positive", http.StatusBadRequest)
}

func ErrPaymentNotPositive() *AppError {
	return New("VAL_003", "payment must be positive", http.StatusBadRequest)
}

func ErrInvalidProofHash() *AppError {
	return New("VAL_004", "invalid proof hash", http.StatusBadRequest)
}

// Validation returns a free-form validation error.
func Validation(message string) *AppError {
	return New("VAL_000", message, http.StatusBadRequest)
}

// ---- Entity state (STATE) ----

func ErrOfferNotActive() *AppError {
	return New("STATE_001", "offer not active", http.StatusConflict)
}

func ErrProofNotVerified() *AppError {
	return New("STATE_002", "invalid or unverified proof", http.StatusConflict)
}

func ErrProofAlreadyUsed() *AppError {
	return New("STATE_003", "proof already used", http.StatusConflict)
}

func ErrInsufficientCollateral() *AppError {
	return New("STATE_004", "insufficient collateral", http.StatusUnprocessableEntity)
}

func ErrReputationTooLow() *AppError {
	return New("STATE_005", "reputation too low", http.StatusUnprocessableEntity)
}

func ErrLoanNotActive() *AppError {
	return New("STATE_006", "loan not active", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("STATE_007", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Value transfers (XFER) ----

func ErrInsufficientFunds(err error) *AppError {
	return Wrap("XFER_001", "insufficient account balance", http.StatusPaymentRequired, err)
}

func ErrReturnExcessFailed(err error) *AppError {
	return Wrap("XFER_002", "failed to return excess", http.StatusInternalServerError, err)
}

func ErrPayLenderFailed(err error) *AppError {
	return Wrap("XFER_003", "failed to pay lender", http.StatusInternalServerError, err)
}

func ErrReturnCollateralFailed(err error) *AppError {
	return Wrap("XFER_004", "failed to return collateral", http.StatusInternalServerError, err)
}

func ErrLiquidationFailed(err error) *AppError {
	return Wrap("XFER_005", "failed to liquidate collateral", http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrOracleUnavailable(err error) *AppError {
	return Wrap("SYS_002", "attestation oracle unavailable", http.StatusBadGateway, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
