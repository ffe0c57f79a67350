package checkout

import "github.com/erp/checkout/internal/domain/shared"

// Session registry errors
var (
	ErrCheckoutNotFound    = shared.NewDomainError("CHECKOUT_NOT_FOUND", "Checkout not found")
	ErrTooManyCheckouts    = shared.NewDomainError("TOO_MANY_CHECKOUTS", "Too many checkouts are open")
	ErrTooManyPayments     = shared.NewDomainError("TOO_MANY_PAYMENTS", "Checkout has reached its payment entry limit")
	ErrDeliveryUnavailable = shared.NewDomainError("DELIVERY_UNAVAILABLE", "Receipt delivery is not configured")

	ErrInvalidIdempotencyKey = shared.NewDomainError("INVALID_IDEMPOTENCY_KEY", "Idempotency key must be at most 128 characters")
)
