package router

import (
	"net/http"
	"time"

	"github.com/erp/checkout/internal/infrastructure/config"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/interfaces/http/dto"
	"github.com/erp/checkout/internal/interfaces/http/handler"
	"github.com/erp/checkout/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what the HTTP engine needs besides its handlers
type EngineConfig struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Tracing     bool
	Meter       metric.Meter              // nil disables HTTP metrics
	Limiter     *middleware.RateLimiter   // nil disables rate limiting
	Tokens      middleware.TokenValidator // nil disables terminal authentication
}

// Handlers are the route handlers mounted on the engine
type Handlers struct {
	Checkout *handler.CheckoutHandler
	System   *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware stack and every route mounted
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters:
	// 1. RequestID so every later layer sees the same ID
	// 2. Recovery so panics still produce a JSON 500
	// 3. TerminalAuth rewrites the terminal header before anything reads it
	// 4. Tracing, then SpanEnricher inside the server span
	// 5. Logger and metrics observe the final status
	// 6. Security headers, CORS, body limit and rate limit guard the handlers
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	if cfg.Tokens != nil {
		engine.Use(middleware.TerminalAuth(middleware.TerminalAuthConfig{
			Validator: cfg.Tokens,
			Logger:    log,
			SkipPaths: []string{"/health"},
		}))
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.AllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter))
	}

	engine.GET("/health", healthHandler(h.System))
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.ContextRequestID)))
	})

	r := NewRouter(engine)
	if h.Checkout != nil {
		r.Register(CheckoutRoutes(h.Checkout))
	}
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	r.Setup()

	return engine
}

func healthHandler(system *handler.SystemHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if system != nil {
			system.Ping(c)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
