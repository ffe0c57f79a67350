package event

import (
	"context"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CheckoutLogHandler writes one structured log line per checkout event
type CheckoutLogHandler struct {
	logger *zap.Logger
}

// NewCheckoutLogHandler creates a CheckoutLogHandler
func NewCheckoutLogHandler(l *zap.Logger) *CheckoutLogHandler {
	return &CheckoutLogHandler{logger: l.Named("checkout.events")}
}

// EventTypes returns the checkout event types
func (h *CheckoutLogHandler) EventTypes() []string {
	return []string{
		checkout.EventTypeCheckoutOpened,
		checkout.EventTypePaymentAdmitted,
		checkout.EventTypePaymentRemoved,
		checkout.EventTypeCheckoutSettled,
		checkout.EventTypeCheckoutConfirmed,
	}
}

// Handle logs the event with its domain fields
func (h *CheckoutLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("checkout_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *checkout.CheckoutOpenedEvent:
		fields = append(fields,
			zap.String("invoice_total", e.InvoiceTotal.String()),
			zap.String("wallet_total", e.WalletTotal.String()),
		)
	case *checkout.PaymentAdmittedEvent:
		fields = append(fields,
			zap.String("entry_id", e.EntryID.String()),
			zap.String("method", e.Method.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("remaining", e.Remaining.String()),
		)
	case *checkout.PaymentRemovedEvent:
		fields = append(fields,
			zap.String("entry_id", e.EntryID.String()),
			zap.String("method", e.Method.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("status", e.Status.String()),
		)
	case *checkout.CheckoutSettledEvent:
		fields = append(fields,
			zap.String("total_paid", e.TotalPaid.String()),
			zap.Int("entries", e.EntryCount),
		)
	case *checkout.CheckoutConfirmedEvent:
		fields = append(fields,
			zap.String("total_paid", e.TotalPaid.String()),
			zap.Int("entries", e.EntryCount),
			zap.Time("confirmed_at", e.ConfirmedAt),
		)
	}

	logger.For(ctx, h.logger).Info("checkout event", fields...)
	return nil
}

var _ shared.EventHandler = (*CheckoutLogHandler)(nil)
