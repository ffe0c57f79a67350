package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	checkoutapp "github.com/erp/checkout/internal/application/checkout"
	"github.com/erp/checkout/internal/infrastructure/auth"
	"github.com/erp/checkout/internal/infrastructure/config"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/interfaces/http/handler"
	"github.com/erp/checkout/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, cfg EngineConfig) (*gin.Engine, *checkoutapp.CheckoutService) {
	t.Helper()
	svc := checkoutapp.NewCheckoutService(checkoutapp.Limits{MaxEntries: 10}, zap.NewNop())
	engine := NewEngine(cfg, Handlers{
		Checkout: handler.NewCheckoutHandler(svc),
		System:   handler.NewSystemHandler("pos-checkout", "test", svc),
	}, zap.NewNop())
	return engine, svc
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestNewEngine_Routes(t *testing.T) {
	engine, _ := newTestEngine(t, EngineConfig{})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
		"POST /api/v1/checkouts",
		"GET /api/v1/checkouts/:id",
		"DELETE /api/v1/checkouts/:id",
		"POST /api/v1/checkouts/:id/close",
		"GET /api/v1/checkouts/:id/quick-fill",
		"POST /api/v1/checkouts/:id/confirm",
		"POST /api/v1/checkouts/:id/receipt/deliveries",
		"POST /api/v1/checkouts/:id/payments",
		"POST /api/v1/checkouts/:id/payments/validate",
		"DELETE /api/v1/checkouts/:id/payments/:entryId",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestNewEngine_HealthAndHeaders(t *testing.T) {
	engine, _ := newTestEngine(t, EngineConfig{})

	w := serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDKey))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewEngine_NoRoute(t *testing.T) {
	engine, _ := newTestEngine(t, EngineConfig{})

	w := serve(engine, http.MethodGet, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", decodeCode(t, w))
}

func TestNewEngine_OpenCheckout(t *testing.T) {
	engine, svc := newTestEngine(t, EngineConfig{})

	body := `{"invoice_id":"INV-7","items":[{"name":"Item","unit_price":"150.50","quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(logger.TerminalHeader, "till-04")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"invoice_total":"301.00"`)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine, _ := newTestEngine(t, EngineConfig{HTTP: config.HTTPConfig{MaxBodySize: 64}})

	body := bytes.Repeat([]byte("x"), 1024)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_RateLimitPerTerminal(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Close()
	engine, _ := newTestEngine(t, EngineConfig{Limiter: limiter})

	call := func(terminal string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
		req.Header.Set(logger.TerminalHeader, terminal)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("till-01"))
	assert.Equal(t, http.StatusOK, call("till-01"))
	assert.Equal(t, http.StatusTooManyRequests, call("till-01"))
	assert.Equal(t, http.StatusOK, call("till-02"))
}

func TestNewEngine_CORS(t *testing.T) {
	engine, _ := newTestEngine(t, EngineConfig{HTTP: config.HTTPConfig{AllowOrigins: []string{"https://pos.example.com"}}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkouts", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pos.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewEngine_TerminalAuth(t *testing.T) {
	tokens := auth.NewTerminalTokenService(config.AuthConfig{
		Secret:   "engine-test-secret-at-least-32-chars",
		Issuer:   "pos-checkout",
		TokenTTL: time.Hour,
	})
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Close()
	engine, _ := newTestEngine(t, EngineConfig{Tokens: tokens, Limiter: limiter})

	w := serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(engine, http.MethodGet, "/api/v1/system/ping")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_UNAUTHORIZED", decodeCode(t, w))

	token, _, err := tokens.Issue("till-09")
	require.NoError(t, err)

	// the limiter keys on the token's terminal, not the spoofable header
	call := func(spoofed string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(logger.TerminalHeader, spoofed)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, call("till-a"))
	assert.Equal(t, http.StatusTooManyRequests, call("till-b"))
}
