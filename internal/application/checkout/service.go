package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const spanService = "checkout"

// Limits bounds the in-memory registry. Zero means unbounded.
type Limits struct {
	MaxEntries      int // payment entries per checkout
	MaxOpenSessions int // sessions held at once, confirmed ones included
}

type session struct {
	invoice *checkout.Invoice
	engine  *checkout.Engine
	receipt *checkout.Receipt
}

// CheckoutService runs checkout sessions for POS terminals.
// Every call is serialized by one mutex, so each engine sees a single caller.
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	limits   Limits

	eventPublisher shared.EventPublisher
	dispatcher     checkout.ReceiptDispatcher
	metrics        *telemetry.CheckoutMetrics
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	engineOpts     []checkout.EngineOption
	logger         *zap.Logger
}

// MaxIdempotencyKeyLength bounds client-supplied idempotency keys
const MaxIdempotencyKeyLength = 128

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(limits Limits, l *zap.Logger) *CheckoutService {
	if l == nil {
		l = zap.NewNop()
	}
	return &CheckoutService{
		sessions: make(map[uuid.UUID]*session),
		limits:   limits,
		logger:   l.Named("checkout"),
	}
}

// SetIdempotencyStore enables replay protection for AddPayment.
// A claimed key is held for ttl; a failed admission releases it.
func (s *CheckoutService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	s.idempotencyTTL = ttl
}

// SetEventPublisher sets the publisher that receives checkout domain events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReceiptDispatcher sets the dispatcher used by DeliverReceipt
func (s *CheckoutService) SetReceiptDispatcher(dispatcher checkout.ReceiptDispatcher) {
	s.dispatcher = dispatcher
}

// SetMetrics sets the metrics recorder for outcomes that have no domain event
func (s *CheckoutService) SetMetrics(metrics *telemetry.CheckoutMetrics) {
	s.metrics = metrics
}

// SetEngineOptions sets options applied to every new engine, e.g. a fixed clock
func (s *CheckoutService) SetEngineOptions(opts ...checkout.EngineOption) {
	s.engineOpts = opts
}

// OpenCheckout prices the invoice and opens a reconciliation session against it
func (s *CheckoutService) OpenCheckout(ctx context.Context, req OpenCheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "open",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, req.InvoiceID))
	defer span.End()

	invoice, err := buildInvoice(req)
	if err != nil {
		return nil, s.fail(ctx, span, "open checkout", err)
	}
	wallet, err := buildWallet(req.Wallet)
	if err != nil {
		return nil, s.fail(ctx, span, "open checkout", err)
	}

	s.mu.Lock()
	if s.limits.MaxOpenSessions > 0 && len(s.sessions) >= s.limits.MaxOpenSessions {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "open checkout", ErrTooManyCheckouts)
	}
	engine, err := checkout.OpenSession(invoice.Totals().Payable(), wallet, s.engineOpts...)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "open checkout", err)
	}
	s.sessions[engine.ID] = &session{invoice: invoice, engine: engine}
	resp := ToCheckoutResponse(invoice, engine)
	events := drainEvents(engine)
	s.mu.Unlock()

	s.publish(ctx, events)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCheckoutID, engine.ID,
		telemetry.SpanAttrStatus, resp.Status,
		telemetry.SpanAttrRemaining, resp.Remaining.String(),
	)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Checkout opened",
		zap.String("checkout_id", engine.ID.String()),
		zap.String("invoice_id", invoice.ID),
		zap.String("amount_due", resp.AmountDue.String()),
		zap.String("status", resp.Status),
	)
	return &resp, nil
}

// GetCheckout returns the current view of a checkout
func (s *CheckoutService) GetCheckout(ctx context.Context, id uuid.UUID) (*CheckoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	resp := ToCheckoutResponse(sess.invoice, sess.engine)
	return &resp, nil
}

// ValidatePayment checks a candidate tender without admitting it
func (s *CheckoutService) ValidatePayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*ValidatePaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "validate_payment",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentMethod, req.Method))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(id)
	if err != nil {
		return nil, s.fail(ctx, span, "validate payment", err)
	}
	method, err := sess.method(req)
	if err != nil {
		return nil, s.fail(ctx, span, "validate payment", err)
	}
	amount, err := sess.engine.ValidateCandidate(method, req.Amount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	remaining := sess.engine.Remaining()
	telemetry.SetOK(span)
	return &ValidatePaymentResponse{
		Method:         method.Kind().String(),
		Amount:         amount,
		Remaining:      remaining,
		RemainingAfter: remaining.Sub(amount),
	}, nil
}

// AddPayment validates and admits a tender
func (s *CheckoutService) AddPayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "add_payment",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentMethod, req.Method),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount))
	defer span.End()

	key, err := s.idempotencyKey(id, req.IdempotencyKey)
	if err != nil {
		return nil, s.fail(ctx, span, "add payment", err)
	}
	if key != "" {
		claimed, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
		switch {
		case err != nil:
			logger.For(ctx, s.logger).Warn("Idempotency store unavailable, admitting without replay protection",
				zap.String("checkout_id", id.String()),
				zap.Error(err),
			)
			key = ""
		case !claimed:
			return s.replay(ctx, span, id)
		}
	}
	admitted := false
	if key != "" {
		defer func() {
			if !admitted {
				s.releaseKey(ctx, key)
			}
		}()
	}

	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "add payment", err)
	}
	method, err := sess.method(req)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "add payment", err)
	}
	if s.limits.MaxEntries > 0 && len(sess.engine.Entries()) >= s.limits.MaxEntries {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "add payment", ErrTooManyPayments)
	}
	entry, err := sess.engine.Submit(method, req.Amount)
	if err != nil {
		s.mu.Unlock()
		s.metrics.RecordRejected(ctx, method.Kind(), err)
		telemetry.RecordError(span, err)
		logger.For(ctx, s.logger).Info("Payment rejected",
			zap.String("checkout_id", id.String()),
			zap.String("method", method.Kind().String()),
			zap.String("amount", req.Amount),
			zap.Error(err),
		)
		return nil, err
	}
	admitted = true
	resp := ToCheckoutResponse(sess.invoice, sess.engine)
	events := drainEvents(sess.engine)
	s.mu.Unlock()

	s.publish(ctx, events)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntryID, entry.ID,
		telemetry.SpanAttrStatus, resp.Status,
		telemetry.SpanAttrRemaining, resp.Remaining.String(),
	)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Payment admitted",
		zap.String("checkout_id", id.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.String("method", entry.Kind().String()),
		zap.String("amount", entry.Amount.String()),
		zap.String("remaining", resp.Remaining.String()),
	)
	return &resp, nil
}

// RemovePayment takes an entry back out. Removing an unknown entry changes nothing.
func (s *CheckoutService) RemovePayment(ctx context.Context, id, entryID uuid.UUID) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "remove_payment",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id),
		telemetry.WithAttribute(telemetry.SpanAttrEntryID, entryID))
	defer span.End()

	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "remove payment", err)
	}
	known := sess.engine.State().IndexOf(entryID) >= 0
	if err := sess.engine.Remove(entryID); err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "remove payment", err)
	}
	resp := ToCheckoutResponse(sess.invoice, sess.engine)
	events := drainEvents(sess.engine)
	s.mu.Unlock()

	s.publish(ctx, events)
	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, resp.Status, "checkout.entry_found", known)
	telemetry.SetOK(span)
	if known {
		logger.For(ctx, s.logger).Info("Payment removed",
			zap.String("checkout_id", id.String()),
			zap.String("entry_id", entryID.String()),
			zap.String("remaining", resp.Remaining.String()),
		)
	} else {
		logger.For(ctx, s.logger).Debug("Payment entry not found, nothing removed",
			zap.String("checkout_id", id.String()),
			zap.String("entry_id", entryID.String()),
		)
	}
	return &resp, nil
}

// QuickFill returns the amounts a terminal can pre-fill for the current balance
func (s *CheckoutService) QuickFill(ctx context.Context, id uuid.UUID) (*QuickFillResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	q := sess.engine.Suggestions()
	return &QuickFillResponse{
		Remaining: q.Remaining,
		Wallet:    q.Wallet,
		Points:    q.Points,
		Refund:    q.Refund,
	}, nil
}

// ConfirmCheckout finalizes a settled checkout and returns its receipt
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "confirm",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id))
	defer span.End()

	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "confirm checkout", err)
	}
	if _, err := sess.engine.Confirm(); err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "confirm checkout", err)
	}
	receipt, err := checkout.NewReceipt(sess.invoice, sess.engine)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "confirm checkout", err)
	}
	sess.receipt = &receipt
	events := drainEvents(sess.engine)
	s.mu.Unlock()

	s.publish(ctx, events)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, receipt.InvoiceID,
		telemetry.SpanAttrStatus, checkout.StatusConfirmed,
		"checkout.entry_count", len(receipt.Entries),
	)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Checkout confirmed",
		zap.String("checkout_id", id.String()),
		zap.String("invoice_id", receipt.InvoiceID),
		zap.String("total", receipt.Total.String()),
		zap.Int("entries", len(receipt.Entries)),
	)
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// DeliverReceipt sends a confirmed receipt. Channel failures are reported per
// channel and never affect the confirmed checkout.
func (s *CheckoutService) DeliverReceipt(ctx context.Context, id uuid.UUID, req DeliverReceiptRequest) (*DeliverReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "deliver_receipt",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id),
		telemetry.WithAttribute(telemetry.SpanAttrChannel, req.Channels))
	defer span.End()

	if s.dispatcher == nil {
		return nil, s.fail(ctx, span, "deliver receipt", ErrDeliveryUnavailable)
	}

	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "deliver receipt", err)
	}
	if sess.receipt == nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "deliver receipt", checkout.ErrNotConfirmed)
	}
	receipt := *sess.receipt
	s.mu.Unlock()

	channels := make([]checkout.DeliveryChannel, 0, len(req.Channels))
	for _, c := range req.Channels {
		channels = append(channels, checkout.DeliveryChannel(strings.ToUpper(strings.TrimSpace(c))))
	}

	results := s.dispatcher.Dispatch(ctx, checkout.DeliveryRequest{
		Receipt:     receipt,
		Destination: req.Phone,
		Channels:    channels,
	})

	resp := &DeliverReceiptResponse{CheckoutID: id, Results: make([]DeliveryResultResponse, 0, len(results))}
	failed := 0
	for _, r := range results {
		item := DeliveryResultResponse{Channel: r.Channel.String(), Delivered: r.Delivered(), Message: r.Message}
		if r.Err != nil {
			failed++
			item.ErrorCode = errorCode(r.Err)
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}

	telemetry.SetAttributes(span, "delivery.failed", failed)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Receipt dispatched",
		zap.String("checkout_id", id.String()),
		zap.Int("channels", len(results)),
		zap.Int("failed", failed),
	)
	return resp, nil
}

// CancelCheckout discards an unconfirmed session
func (s *CheckoutService) CancelCheckout(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "cancel",
		telemetry.WithAttribute(telemetry.SpanAttrCheckoutID, id))
	defer span.End()

	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return s.fail(ctx, span, "cancel checkout", err)
	}
	if sess.engine.Status() == checkout.StatusConfirmed {
		s.mu.Unlock()
		return s.fail(ctx, span, "cancel checkout", checkout.ErrAlreadyConfirmed)
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	s.metrics.RecordCancelled(ctx)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Checkout cancelled", zap.String("checkout_id", id.String()))
	return nil
}

// CloseCheckout releases a confirmed session once its receipt is no longer needed
func (s *CheckoutService) CloseCheckout(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.find(id)
	if err != nil {
		return err
	}
	if sess.engine.Status() != checkout.StatusConfirmed {
		return checkout.ErrNotConfirmed
	}
	delete(s.sessions, id)
	logger.For(ctx, s.logger).Debug("Checkout closed", zap.String("checkout_id", id.String()))
	return nil
}

// SessionCount returns the number of sessions held
func (s *CheckoutService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// idempotencyKey scopes a client key to its checkout. Empty when replay
// protection is off or the client sent no key.
func (s *CheckoutService) idempotencyKey(id uuid.UUID, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if s.idempotency == nil || raw == "" {
		return "", nil
	}
	if len(raw) > MaxIdempotencyKeyLength {
		return "", ErrInvalidIdempotencyKey
	}
	return id.String() + ":" + raw, nil
}

// replay answers a repeated submission with the current view instead of admitting again
func (s *CheckoutService) replay(ctx context.Context, span trace.Span, id uuid.UUID) (*CheckoutResponse, error) {
	s.mu.Lock()
	sess, err := s.find(id)
	if err != nil {
		s.mu.Unlock()
		return nil, s.fail(ctx, span, "add payment", err)
	}
	resp := ToCheckoutResponse(sess.invoice, sess.engine)
	s.mu.Unlock()

	resp.Replayed = true
	telemetry.SetAttributes(span, "checkout.replayed", true)
	telemetry.SetOK(span)
	logger.For(ctx, s.logger).Info("Payment replayed",
		zap.String("checkout_id", id.String()),
		zap.String("remaining", resp.Remaining.String()),
	)
	return &resp, nil
}

func (s *CheckoutService) releaseKey(ctx context.Context, key string) {
	if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to release idempotency key", zap.Error(err))
	}
}

// find must be called with s.mu held
func (s *CheckoutService) find(id uuid.UUID) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	return sess, nil
}

func (s *CheckoutService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish checkout events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *CheckoutService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	telemetry.RecordError(span, err)
	logger.For(ctx, s.logger).Debug(op+" failed", zap.Error(err))
	return err
}

// drainEvents must be called with s.mu held
func drainEvents(engine *checkout.Engine) []shared.DomainEvent {
	events := append([]shared.DomainEvent(nil), engine.GetDomainEvents()...)
	engine.ClearDomainEvents()
	return events
}

func buildInvoice(req OpenCheckoutRequest) (*checkout.Invoice, error) {
	items := make([]checkout.LineItem, 0, len(req.Items))
	for _, in := range req.Items {
		price, err := valueobject.ParseMoney(in.UnitPrice)
		if err != nil {
			return nil, err
		}
		item, err := checkout.NewLineItem(in.Name, price, in.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	tax, err := parseOptionalMoney(req.Tax)
	if err != nil {
		return nil, err
	}
	discount, err := parseOptionalMoney(req.Discount)
	if err != nil {
		return nil, err
	}
	return checkout.NewInvoice(req.InvoiceID, items, tax, discount)
}

func buildWallet(in *WalletInput) (checkout.WalletBalance, error) {
	if in == nil {
		return checkout.WalletBalance{}, nil
	}
	points, err := parseOptionalMoney(in.RewardPoints)
	if err != nil {
		return checkout.WalletBalance{}, err
	}
	refund, err := parseOptionalMoney(in.RefundBalance)
	if err != nil {
		return checkout.WalletBalance{}, err
	}
	wallet := checkout.NewWalletBalance(points, refund)
	if strings.TrimSpace(in.Total) != "" {
		total, err := valueobject.ParseMoney(in.Total)
		if err != nil {
			return checkout.WalletBalance{}, err
		}
		wallet.Total = total
	}
	return wallet, nil
}

// method builds the tender for req. A confirmed session reports
// ALREADY_CONFIRMED ahead of any problem with the method itself.
func (sess *session) method(req PaymentRequest) (checkout.PaymentMethod, error) {
	if sess.engine.Status() == checkout.StatusConfirmed {
		return nil, checkout.ErrAlreadyConfirmed
	}
	return buildMethod(req)
}

func buildMethod(req PaymentRequest) (checkout.PaymentMethod, error) {
	kind := checkout.MethodKind(strings.ToUpper(strings.TrimSpace(req.Method)))
	return checkout.NewPaymentMethod(kind, req.CardType, req.LastFour, req.Reference)
}

func parseOptionalMoney(raw string) (valueobject.Money, error) {
	if strings.TrimSpace(raw) == "" {
		return valueobject.Zero(), nil
	}
	return valueobject.ParseMoney(raw)
}

func errorCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "INTERNAL_ERROR"
}
