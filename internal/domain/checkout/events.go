package checkout

import (
	"time"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Checkout event types
const (
	EventTypeCheckoutOpened    = "CheckoutOpened"
	EventTypePaymentAdmitted   = "CheckoutPaymentAdmitted"
	EventTypePaymentRemoved    = "CheckoutPaymentRemoved"
	EventTypeCheckoutSettled   = "CheckoutSettled"
	EventTypeCheckoutConfirmed = "CheckoutConfirmed"
)

// CheckoutOpenedEvent is raised when a session starts
type CheckoutOpenedEvent struct {
	shared.BaseDomainEvent
	InvoiceTotal decimal.Decimal `json:"invoice_total"`
	WalletTotal  decimal.Decimal `json:"wallet_total"`
}

// NewCheckoutOpenedEvent creates a new CheckoutOpenedEvent
func NewCheckoutOpenedEvent(e *Engine) *CheckoutOpenedEvent {
	return &CheckoutOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutOpened, AggregateType, e.ID),
		InvoiceTotal:    e.state.InvoiceTotal.Amount(),
		WalletTotal:     e.wallet.Total.Amount(),
	}
}

// PaymentAdmittedEvent is raised for every admitted entry
type PaymentAdmittedEvent struct {
	shared.BaseDomainEvent
	EntryID    uuid.UUID       `json:"entry_id"`
	Method     MethodKind      `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Detail     string          `json:"detail"`
	PointsUsed decimal.Decimal `json:"points_used"`
	RefundUsed decimal.Decimal `json:"refund_used"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// NewPaymentAdmittedEvent creates a new PaymentAdmittedEvent
func NewPaymentAdmittedEvent(e *Engine, entry PaymentEntry) *PaymentAdmittedEvent {
	redemption := entry.WalletRedemption()
	return &PaymentAdmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentAdmitted, AggregateType, e.ID),
		EntryID:         entry.ID,
		Method:          entry.Kind(),
		Amount:          entry.Amount.Amount(),
		Detail:          entry.Detail,
		PointsUsed:      redemption.PointsUsed.Amount(),
		RefundUsed:      redemption.RefundUsed.Amount(),
		Remaining:       e.state.Remaining().Amount(),
	}
}

// PaymentRemovedEvent is raised when an entry is taken back out
type PaymentRemovedEvent struct {
	shared.BaseDomainEvent
	EntryID        uuid.UUID       `json:"entry_id"`
	Method         MethodKind      `json:"method"`
	Amount         decimal.Decimal `json:"amount"`
	Remaining      decimal.Decimal `json:"remaining"`
	PreviousStatus Status          `json:"previous_status"`
	Status         Status          `json:"status"`
}

// NewPaymentRemovedEvent creates a new PaymentRemovedEvent
func NewPaymentRemovedEvent(e *Engine, entry PaymentEntry, previous Status) *PaymentRemovedEvent {
	return &PaymentRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRemoved, AggregateType, e.ID),
		EntryID:         entry.ID,
		Method:          entry.Kind(),
		Amount:          entry.Amount.Amount(),
		Remaining:       e.state.Remaining().Amount(),
		PreviousStatus:  previous,
		Status:          e.state.Status(),
	}
}

// CheckoutSettledEvent is raised when the remaining balance reaches zero
type CheckoutSettledEvent struct {
	shared.BaseDomainEvent
	TotalPaid  decimal.Decimal `json:"total_paid"`
	EntryCount int             `json:"entry_count"`
}

// NewCheckoutSettledEvent creates a new CheckoutSettledEvent
func NewCheckoutSettledEvent(e *Engine) *CheckoutSettledEvent {
	return &CheckoutSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutSettled, AggregateType, e.ID),
		TotalPaid:       e.state.TotalPaid().Amount(),
		EntryCount:      len(e.state.Entries),
	}
}

// CheckoutConfirmedEvent is raised once, when the entry set is finalized
type CheckoutConfirmedEvent struct {
	shared.BaseDomainEvent
	InvoiceTotal decimal.Decimal                `json:"invoice_total"`
	TotalPaid    decimal.Decimal                `json:"total_paid"`
	EntryCount   int                            `json:"entry_count"`
	ByMethod     map[MethodKind]decimal.Decimal `json:"by_method"`
	ConfirmedAt  time.Time                      `json:"confirmed_at"`
}

// NewCheckoutConfirmedEvent creates a new CheckoutConfirmedEvent
func NewCheckoutConfirmedEvent(e *Engine) *CheckoutConfirmedEvent {
	byMethod := make(map[MethodKind]decimal.Decimal)
	for _, entry := range e.state.Entries {
		byMethod[entry.Kind()] = byMethod[entry.Kind()].Add(entry.Amount.Amount())
	}
	return &CheckoutConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckoutConfirmed, AggregateType, e.ID),
		InvoiceTotal:    e.state.InvoiceTotal.Amount(),
		TotalPaid:       e.state.TotalPaid().Amount(),
		EntryCount:      len(e.state.Entries),
		ByMethod:        byMethod,
		ConfirmedAt:     e.UpdatedAt,
	}
}
