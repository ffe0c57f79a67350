package checkout

import (
	"fmt"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
)

// Checkout error codes. Every error is recoverable and leaves the session unchanged.
var (
	ErrInvalidAmount             = valueobject.ErrInvalidAmount
	ErrInsufficientWalletBalance = shared.NewDomainError("INSUFFICIENT_WALLET_BALANCE", "Amount exceeds the available wallet balance")
	ErrExceedsRemainingBalance   = shared.NewDomainError("EXCEEDS_REMAINING_BALANCE", "Amount exceeds the remaining balance")
	ErrMissingCardType           = shared.NewDomainError("MISSING_CARD_TYPE", "Card type is required for card payments")
	ErrBalanceNotSettled         = shared.NewDomainError("BALANCE_NOT_SETTLED", "Balance is not fully settled")
	ErrAlreadyConfirmed          = shared.NewDomainError("ALREADY_CONFIRMED", "Checkout is already confirmed")
	ErrEntryNotFound             = shared.NewDomainError("ENTRY_NOT_FOUND", "Payment entry not found")
	ErrInvalidWalletBalance      = shared.NewDomainError("INVALID_WALLET_BALANCE", "Wallet total must equal reward points plus refund balance")
	ErrInvalidPaymentMethod      = shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	ErrInvalidInvoice            = shared.NewDomainError("INVALID_INVOICE", "Invoice is not valid")
	ErrNotConfirmed              = shared.NewDomainError("NOT_CONFIRMED", "Checkout must be confirmed first")
)

// BalanceNotSettledError reports the outstanding amount when confirmation is attempted too early
type BalanceNotSettledError struct {
	Remaining valueobject.Money
}

// Error implements the error interface
func (e *BalanceNotSettledError) Error() string {
	return fmt.Sprintf("Balance is not fully settled: %s remaining", e.Remaining.Display())
}

// Unwrap exposes the BALANCE_NOT_SETTLED domain error
func (e *BalanceNotSettledError) Unwrap() error {
	return shared.NewDomainError(ErrBalanceNotSettled.Code, e.Error())
}

func newDomainError(kind *shared.DomainError, format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(kind.Code, fmt.Sprintf(format, args...))
}
