package dto

import "net/http"

// Error code constants for transport-level failures
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a terminal exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeUnauthorized is used when the terminal token is missing or invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the terminal token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
)

// Checkout error codes. These are the codes raised by the domain and
// application layers and are passed through to clients unchanged.
const (
	CodeInvalidAmount             = "INVALID_AMOUNT"
	CodeInvalidPaymentMethod      = "INVALID_PAYMENT_METHOD"
	CodeMissingCardType           = "MISSING_CARD_TYPE"
	CodeInvalidInvoice            = "INVALID_INVOICE"
	CodeInvalidWalletBalance      = "INVALID_WALLET_BALANCE"
	CodeInsufficientWalletBalance = "INSUFFICIENT_WALLET_BALANCE"
	CodeExceedsRemainingBalance   = "EXCEEDS_REMAINING_BALANCE"
	CodeBalanceNotSettled         = "BALANCE_NOT_SETTLED"
	CodeAlreadyConfirmed          = "ALREADY_CONFIRMED"
	CodeNotConfirmed              = "NOT_CONFIRMED"
	CodeEntryNotFound             = "ENTRY_NOT_FOUND"
	CodeCheckoutNotFound          = "CHECKOUT_NOT_FOUND"
	CodeTooManyCheckouts          = "TOO_MANY_CHECKOUTS"
	CodeTooManyPayments           = "TOO_MANY_PAYMENTS"
	CodeInvalidPhone              = "INVALID_PHONE"
	CodeInvalidChannel            = "INVALID_CHANNEL"
	CodeChannelDisabled           = "CHANNEL_DISABLED"
	CodeDeliveryFailed            = "DELIVERY_FAILED"
	CodeDeliveryUnavailable       = "DELIVERY_UNAVAILABLE"
	CodeInvalidIdempotencyKey     = "INVALID_IDEMPOTENCY_KEY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,

	// Malformed input -> 400 Bad Request
	CodeInvalidAmount:        http.StatusBadRequest,
	CodeInvalidPaymentMethod: http.StatusBadRequest,
	CodeMissingCardType:      http.StatusBadRequest,
	CodeInvalidInvoice:       http.StatusBadRequest,
	CodeInvalidWalletBalance: http.StatusBadRequest,
	CodeInvalidPhone:         http.StatusBadRequest,
	CodeInvalidChannel:       http.StatusBadRequest,

	CodeInvalidIdempotencyKey: http.StatusBadRequest,

	// Well-formed but not admissible now -> 422 Unprocessable Entity
	CodeInsufficientWalletBalance: http.StatusUnprocessableEntity,
	CodeExceedsRemainingBalance:   http.StatusUnprocessableEntity,
	CodeBalanceNotSettled:         http.StatusUnprocessableEntity,
	CodeTooManyPayments:           http.StatusUnprocessableEntity,
	CodeChannelDisabled:           http.StatusUnprocessableEntity,

	// Lifecycle conflicts -> 409 Conflict
	CodeAlreadyConfirmed: http.StatusConflict,
	CodeNotConfirmed:     http.StatusConflict,

	CodeEntryNotFound:       http.StatusNotFound,
	CodeCheckoutNotFound:    http.StatusNotFound,
	CodeTooManyCheckouts:    http.StatusTooManyRequests,
	CodeDeliveryFailed:      http.StatusBadGateway,
	CodeDeliveryUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the generic shared domain codes to transport codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeBadRequest,
	"INVALID_STATE":    ErrCodeInvalidState,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode converts a generic error code to the transport format.
// Checkout codes and unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
