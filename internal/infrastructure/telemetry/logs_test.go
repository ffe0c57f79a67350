package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// recordingExporter keeps exported log records in memory
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func newRecordingProvider(t *testing.T) (*LoggerProvider, *recordingExporter) {
	t.Helper()
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	lp := &LoggerProvider{
		provider: provider,
		logger:   zaptest.NewLogger(t),
		config:   LogsConfig{Enabled: true, ServiceName: "pos-checkout-test"},
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	return lp, exporter
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProvider_Bridge_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestLoggerProvider_Bridge(t *testing.T) {
	lp, exporter := newRecordingProvider(t)
	core, recorded := observer.New(zapcore.DebugLevel)

	logger := lp.Bridge(zap.New(core), zapcore.InfoLevel)
	logger.Debug("local only")
	logger.Info("payment admitted", zap.String("method", "CASH"))
	logger.With(zap.String("checkout_id", "c-1")).Warn("delivery failed")

	assert.Equal(t, 3, recorded.Len())
	assert.Equal(t, []string{"payment admitted", "delivery failed"}, exporter.bodies())
}

func TestLevelFilterCore(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	logger := zap.New(core)
	logger.Info("dropped")
	logger.Error("kept")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "kept", recorded.All()[0].Message)
}

func TestLevelFilterCore_With(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	child := core.With([]zapcore.Field{zap.String("terminal_id", "T1")})
	filtered, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)

	logger := zap.New(child)
	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "T1", recorded.All()[0].ContextMap()["terminal_id"])
}
