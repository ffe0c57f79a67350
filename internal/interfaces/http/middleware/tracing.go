package middleware

import (
	"net/http"
	"regexp"

	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxRequestIDLength bounds request IDs taken from headers
	MaxRequestIDLength = 128

	// ErrorCodeKey is the gin context key handlers store the response error code under
	ErrorCodeKey = "error_code"
)

// terminalIDPattern restricts terminal IDs copied into span attributes
var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "pos-checkout",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns the otelgin server middleware.
// Spans are named "METHOD route", e.g. "POST /api/v1/checkouts/:id/payments".
// Place SpanEnricher after it to add checkout attributes while the span is open.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher tags the request span with request and terminal IDs and,
// once the handler has run, marks 4xx/5xx responses as errors carrying the
// checkout error code.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := getRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if terminalID := getTerminalID(c); terminalID != "" {
			span.SetAttributes(attribute.String("terminal_id", terminalID))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		span.SetStatus(codes.Error, statusDescription(status))
	}
}

func statusDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusNotFound:
		return "Not Found"
	case status == http.StatusConflict:
		return "Conflict"
	case status == http.StatusTooManyRequests:
		return "Too Many Requests"
	default:
		return "Client Error"
	}
}

// getRequestID returns the request ID set by RequestID, or a truncated header value
func getRequestID(c *gin.Context) string {
	if id := c.GetString(ContextRequestID); id != "" {
		return id
	}
	headerID := c.GetHeader(RequestIDKey)
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// getTerminalID returns the terminal header when it is well formed
func getTerminalID(c *gin.Context) string {
	id := c.GetHeader(logger.TerminalHeader)
	if !terminalIDPattern.MatchString(id) {
		return ""
	}
	return id
}
