package delivery

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds one Dispatch call across all channels
const DefaultTimeout = 5 * time.Second

// Dispatcher fans a confirmed receipt out to channels concurrently.
// A channel failing never affects the others and never touches the checkout.
type Dispatcher struct {
	formatter *Formatter
	senders   map[checkout.DeliveryChannel]Sender
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *telemetry.CheckoutMetrics
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithTimeout sets the deadline applied to each Dispatch call
func WithTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.logger = l
	}
}

// WithMetrics records delivery outcomes and latency
func WithMetrics(m *telemetry.CheckoutMetrics) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.metrics = m
	}
}

// NewDispatcher creates a Dispatcher. Only channels with a sender are enabled.
func NewDispatcher(formatter *Formatter, senders map[checkout.DeliveryChannel]Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		formatter: formatter,
		senders:   make(map[checkout.DeliveryChannel]Sender, len(senders)),
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for channel, sender := range senders {
		if sender != nil {
			d.senders[channel] = sender
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Channels returns the enabled channels in a stable order
func (d *Dispatcher) Channels() []checkout.DeliveryChannel {
	out := make([]checkout.DeliveryChannel, 0, len(d.senders))
	for _, channel := range []checkout.DeliveryChannel{checkout.ChannelPrint, checkout.ChannelWhatsApp, checkout.ChannelSMS} {
		if _, ok := d.senders[channel]; ok {
			out = append(out, channel)
		}
	}
	return out
}

// Dispatch formats and sends the receipt on every requested channel.
// Results follow the request order with duplicates removed.
func (d *Dispatcher) Dispatch(ctx context.Context, req checkout.DeliveryRequest) []checkout.DeliveryResult {
	channels := dedupe(req.Channels)
	results := make([]checkout.DeliveryResult, len(channels))
	if len(channels) == 0 {
		return results
	}

	if req.Receipt.ConfirmedAt.IsZero() {
		for i, channel := range channels {
			results[i] = checkout.DeliveryResult{Channel: channel, Err: checkout.ErrNotConfirmed}
		}
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var g errgroup.Group
	for i, channel := range channels {
		g.Go(func() error {
			results[i] = d.deliver(ctx, req, channel)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, req checkout.DeliveryRequest, channel checkout.DeliveryChannel) (result checkout.DeliveryResult) {
	ctx, span := telemetry.StartServiceSpan(ctx, "delivery", "send",
		telemetry.WithAttribute(telemetry.SpanAttrChannel, channel),
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, req.Receipt.CheckoutID),
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, req.Receipt.InvoiceID),
	)
	defer span.End()

	log := logger.For(ctx, d.logger).With(
		zap.String("channel", channel.String()),
		zap.String("invoice_id", req.Receipt.InvoiceID),
	)
	start := time.Now()
	result.Channel = channel

	msg, err := d.prepare(req, channel)
	if err == nil {
		err = d.send(ctx, channel, msg)
	}
	d.metrics.RecordDelivery(ctx, channel, err == nil, time.Since(start))

	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Receipt delivery failed", zap.Error(err))
		result.Err = err
		return result
	}

	telemetry.SetOK(span)
	log.Info("Receipt delivered", zap.Duration("duration", time.Since(start)))
	result.Message = msg.Summary()
	return result
}

func (d *Dispatcher) prepare(req checkout.DeliveryRequest, channel checkout.DeliveryChannel) (Message, error) {
	if !channel.IsValid() {
		return Message{}, ErrUnknownChannel
	}
	if _, ok := d.senders[channel]; !ok {
		return Message{}, ErrChannelDisabled
	}
	return d.formatter.Format(channel, req.Receipt, req.Destination)
}

// send runs the channel sender, converting a panic into a failed result
func (d *Dispatcher) send(ctx context.Context, channel checkout.DeliveryChannel, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Receipt sender panicked",
				zap.String("channel", channel.String()),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
			err = fmt.Errorf("%w: sender panicked: %v", ErrSendFailed, r)
		}
	}()
	if err := d.senders[channel].Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, channel, err)
	}
	return nil
}

func dedupe(channels []checkout.DeliveryChannel) []checkout.DeliveryChannel {
	out := make([]checkout.DeliveryChannel, 0, len(channels))
	for _, channel := range channels {
		if !slices.Contains(out, channel) {
			out = append(out, channel)
		}
	}
	return out
}

var _ checkout.ReceiptDispatcher = (*Dispatcher)(nil)
