package delivery

import "github.com/erp/checkout/internal/domain/shared"

// Delivery errors are reported per channel and never affect the confirmed checkout
var (
	ErrInvalidPhone    = shared.NewDomainError("INVALID_PHONE", "Destination phone number is not valid")
	ErrUnknownChannel  = shared.NewDomainError("INVALID_CHANNEL", "Delivery channel is not supported")
	ErrChannelDisabled = shared.NewDomainError("CHANNEL_DISABLED", "Delivery channel is not enabled")
	ErrSendFailed      = shared.NewDomainError("DELIVERY_FAILED", "Receipt could not be sent")
)
