package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	checkoutapp "github.com/erp/checkout/internal/application/checkout"
	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/infrastructure/auth"
	"github.com/erp/checkout/internal/infrastructure/cache"
	"github.com/erp/checkout/internal/infrastructure/config"
	"github.com/erp/checkout/internal/infrastructure/delivery"
	"github.com/erp/checkout/internal/infrastructure/event"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/infrastructure/telemetry"
	"github.com/erp/checkout/internal/interfaces/http/handler"
	"github.com/erp/checkout/internal/interfaces/http/middleware"
	"github.com/erp/checkout/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			POS Checkout API
//	@version		1.0
//	@description	Split-payment reconciliation for point-of-sale terminals

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	ctx := context.Background()

	// Telemetry: traces, metrics, then logs so the bridge wraps the final logger
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting POS checkout",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.Bool("tracing", tp.IsEnabled()),
		zap.Bool("metrics", mp.IsEnabled()),
		zap.Bool("log_export", lp.IsEnabled()),
	)

	meter := mp.Meter("pos-checkout")
	checkoutMetrics, err := telemetry.NewCheckoutMetrics(meter)
	if err != nil {
		log.Warn("Checkout metrics disabled", zap.Error(err))
	}

	// Domain events fan out to the audit log and the business metrics
	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewCheckoutLogHandler(log))
	if checkoutMetrics != nil {
		bus.Subscribe(checkoutMetrics)
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	dispatcher, err := newDispatcher(cfg.Delivery, checkoutMetrics, log)
	if err != nil {
		log.Fatal("Failed to initialize receipt delivery", zap.Error(err))
	}

	checkoutService := checkoutapp.NewCheckoutService(checkoutapp.Limits{
		MaxEntries:      cfg.Checkout.MaxEntries,
		MaxOpenSessions: cfg.Checkout.MaxOpenSessions,
	}, log)
	checkoutService.SetEventPublisher(bus)
	checkoutService.SetReceiptDispatcher(dispatcher)
	checkoutService.SetMetrics(checkoutMetrics)

	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStore(ctx, *cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer store.Close()
		checkoutService.SetIdempotencyStore(store, cfg.Idempotency.TTL)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	var tokens middleware.TokenValidator
	if cfg.Auth.Enabled() {
		tokens = auth.NewTerminalTokenService(cfg.Auth)
		log.Info("Terminal authentication enabled", zap.String("issuer", cfg.Auth.Issuer))
	} else {
		log.Warn("Terminal authentication disabled, set auth.secret to require bearer tokens")
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tp.IsEnabled(),
		Meter:       meter,
		Limiter:     limiter,
		Tokens:      tokens,
	}, router.Handlers{
		Checkout: handler.NewCheckoutHandler(checkoutService),
		System:   handler.NewSystemHandler(cfg.App.Name, version, checkoutService),
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...", zap.Int("open_sessions", checkoutService.SessionCount()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Failed to stop event bus", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newDispatcher wires a LogSender behind every configured delivery channel
func newDispatcher(cfg config.DeliveryConfig, metrics *telemetry.CheckoutMetrics, log *zap.Logger) (*delivery.Dispatcher, error) {
	formatter, err := delivery.NewFormatter(delivery.FormatterConfig{
		StoreName:   cfg.StoreName,
		PrintWidth:  cfg.PrintWidth,
		Locale:      cfg.Locale,
		CountryCode: cfg.CountryCode,
	})
	if err != nil {
		return nil, err
	}

	sender := delivery.NewLogSender(log)
	senders := make(map[checkout.DeliveryChannel]delivery.Sender, len(cfg.Channels))
	for _, name := range cfg.Channels {
		channel := checkout.DeliveryChannel(strings.ToUpper(strings.TrimSpace(name)))
		if !channel.IsValid() {
			log.Warn("Ignoring unknown delivery channel", zap.String("channel", name))
			continue
		}
		senders[channel] = sender
	}

	return delivery.NewDispatcher(formatter, senders,
		delivery.WithTimeout(cfg.Timeout),
		delivery.WithLogger(log.Named("delivery")),
		delivery.WithMetrics(metrics),
	), nil
}
