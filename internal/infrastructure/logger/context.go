package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// TerminalIDKey is the context key for the POS terminal that issued the request
	TerminalIDKey contextKey = "terminal_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID on the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithTerminalID stores the POS terminal ID on the context
func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	return context.WithValue(ctx, TerminalIDKey, terminalID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetTerminalID retrieves the terminal ID from context
func GetTerminalID(ctx context.Context) string {
	id, _ := ctx.Value(TerminalIDKey).(string)
	return id
}

// GetTraceID extracts the trace ID from the context's span, or "" without a valid span
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// For returns base enriched with the trace and request fields carried by ctx.
// Usage: logger.For(ctx, s.logger).Info("payment admitted", ...)
func For(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = FromContext(ctx)
	}

	var fields []zap.Field
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if terminalID := GetTerminalID(ctx); terminalID != "" {
		fields = append(fields, zap.String("terminal_id", terminalID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
