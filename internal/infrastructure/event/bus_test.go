package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
	}
}

// testHandler implements EventHandler for testing
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	err, p := h.err, h.panicWith
	h.mu.Unlock()
	if p != nil {
		panic(p)
	}
	return err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func startedBus(t *testing.T, l *zap.Logger) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(l)
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := startedBus(t, zap.NewNop())

	handler := newTestHandler("CheckoutOpened")
	bus.Subscribe(handler)

	event := newTestEvent("CheckoutOpened")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_PreservesOrder(t *testing.T) {
	bus := startedBus(t, zap.NewNop())

	handler := newTestHandler()
	bus.Subscribe(handler)

	first := newTestEvent("CheckoutPaymentAdmitted")
	second := newTestEvent("CheckoutSettled")
	require.NoError(t, bus.Publish(context.Background(), first, second))

	handled := handler.getHandled()
	require.Len(t, handled, 2)
	assert.Equal(t, first, handled[0])
	assert.Equal(t, second, handled[1])
}

func TestInMemoryEventBus_Publish_HandlerFailures(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := startedBus(t, zap.New(core))

	failing := newTestHandler("CheckoutConfirmed")
	failing.err = errors.New("printer offline")
	panicking := newTestHandler("CheckoutConfirmed")
	panicking.panicWith = "boom"
	healthy := newTestHandler("CheckoutConfirmed")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("CheckoutConfirmed"))

	require.NoError(t, err)
	assert.Len(t, healthy.getHandled(), 1)
	assert.Equal(t, 1, recorded.FilterMessage("handler failed to process event").Len())
	assert.Equal(t, 1, recorded.FilterMessage("handler panicked").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t, zap.NewNop())

	handler := newTestHandler("CheckoutOpened")
	bus.Subscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("CheckoutOpened"))

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("CheckoutOpened"))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Stopped(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("CheckoutOpened")
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("CheckoutOpened"))
	assert.ErrorIs(t, err, ErrBusStopped)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("CheckoutOpened")))
	require.NoError(t, bus.Stop(context.Background()))

	err = bus.Publish(context.Background(), newTestEvent("CheckoutOpened"))
	assert.ErrorIs(t, err, ErrBusStopped)
	assert.Len(t, handler.getHandled(), 1)
}
