package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

var paisePerRupee = decimal.NewFromInt(100)

// CheckoutMetrics records checkout business metrics. It subscribes to checkout
// domain events and also exposes direct recorders for outcomes that have no event.
// A nil *CheckoutMetrics records nothing.
type CheckoutMetrics struct {
	opened         *Counter
	openSessions   *UpDownCounter
	admitted       *Counter
	admittedAmount *Counter
	walletRedeemed *Counter
	removed        *Counter
	confirmed      *Counter
	entriesPerSale *Histogram
	rejected       *Counter
	deliveries     *Counter
	deliveryTime   *Histogram
}

// NewCheckoutMetrics creates all checkout instruments on meter
func NewCheckoutMetrics(meter metric.Meter) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &CheckoutMetrics{}
	var err error

	if m.opened, err = NewCounter(meter, "checkout_opened_total", "Checkout sessions opened", "{checkouts}"); err != nil {
		return nil, err
	}
	if m.openSessions, err = NewUpDownCounter(meter, "checkout_open_sessions", "Checkout sessions not yet confirmed or cancelled", "{checkouts}"); err != nil {
		return nil, err
	}
	if m.admitted, err = NewCounter(meter, "checkout_payments_admitted_total", "Payment entries admitted", "{payments}"); err != nil {
		return nil, err
	}
	if m.admittedAmount, err = NewCounter(meter, "checkout_payment_amount_total", "Admitted payment amount in paise", "{paise}"); err != nil {
		return nil, err
	}
	if m.walletRedeemed, err = NewCounter(meter, "checkout_wallet_redeemed_total", "Wallet credit redeemed in paise", "{paise}"); err != nil {
		return nil, err
	}
	if m.removed, err = NewCounter(meter, "checkout_payments_removed_total", "Payment entries removed before confirmation", "{payments}"); err != nil {
		return nil, err
	}
	if m.confirmed, err = NewCounter(meter, "checkout_confirmed_total", "Checkout sessions confirmed", "{checkouts}"); err != nil {
		return nil, err
	}
	if m.entriesPerSale, err = NewHistogram(meter, HistogramOpts{
		Name:        "checkout_entries_per_checkout",
		Description: "Number of payment entries used to settle a checkout",
		Unit:        "{payments}",
		Boundaries:  EntryCountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.rejected, err = NewCounter(meter, "checkout_payments_rejected_total", "Payment candidates rejected by validation", "{payments}"); err != nil {
		return nil, err
	}
	if m.deliveries, err = NewCounter(meter, "checkout_receipt_deliveries_total", "Receipt delivery attempts", "{deliveries}"); err != nil {
		return nil, err
	}
	if m.deliveryTime, err = NewHistogram(meter, HistogramOpts{
		Name:        "checkout_receipt_delivery_duration",
		Description: "Time to format and send a receipt on one channel",
		Unit:        "s",
		Boundaries:  DeliveryDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns the checkout events the metrics are derived from
func (m *CheckoutMetrics) EventTypes() []string {
	return []string{
		checkout.EventTypeCheckoutOpened,
		checkout.EventTypePaymentAdmitted,
		checkout.EventTypePaymentRemoved,
		checkout.EventTypeCheckoutConfirmed,
	}
}

// Handle records the metrics for one checkout event
func (m *CheckoutMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	if m == nil {
		return nil
	}
	switch e := event.(type) {
	case *checkout.CheckoutOpenedEvent:
		m.opened.Inc(ctx)
		m.openSessions.Add(ctx, 1)
	case *checkout.PaymentAdmittedEvent:
		method := AttrPaymentMethod.String(e.Method.String())
		m.admitted.Inc(ctx, method)
		m.admittedAmount.Add(ctx, toPaise(e.Amount), method)
		if e.PointsUsed.IsPositive() {
			m.walletRedeemed.Add(ctx, toPaise(e.PointsUsed), AttrWalletSource.String("points"))
		}
		if e.RefundUsed.IsPositive() {
			m.walletRedeemed.Add(ctx, toPaise(e.RefundUsed), AttrWalletSource.String("refund"))
		}
	case *checkout.PaymentRemovedEvent:
		m.removed.Inc(ctx, AttrPaymentMethod.String(e.Method.String()))
	case *checkout.CheckoutConfirmedEvent:
		m.confirmed.Inc(ctx)
		m.openSessions.Add(ctx, -1)
		m.entriesPerSale.Record(ctx, float64(e.EntryCount))
	}
	return nil
}

// RecordCancelled records a session discarded before confirmation
func (m *CheckoutMetrics) RecordCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.openSessions.Add(ctx, -1)
}

// RecordRejected records a candidate payment that failed validation
func (m *CheckoutMetrics) RecordRejected(ctx context.Context, method checkout.MethodKind, err error) {
	if m == nil {
		return
	}
	code := "UNKNOWN"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	m.rejected.Inc(ctx, AttrPaymentMethod.String(method.String()), AttrErrorCode.String(code))
}

// RecordDelivery records the outcome and latency of one receipt channel
func (m *CheckoutMetrics) RecordDelivery(ctx context.Context, channel checkout.DeliveryChannel, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	attrs := []attribute.KeyValue{AttrChannel.String(channel.String()), AttrOutcome.String(outcome)}
	m.deliveries.Inc(ctx, attrs...)
	m.deliveryTime.RecordDuration(ctx, d, attrs...)
}

func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(paisePerRupee).IntPart()
}

var _ shared.EventHandler = (*CheckoutMetrics)(nil)
