package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CHECKOUT_APP_PORT
const EnvPrefix = "CHECKOUT"

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Checkout    CheckoutConfig
	Delivery    DeliveryConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	TrustedProxies  []string
	AllowOrigins    []string      // CORS whitelist, empty rejects cross-origin calls
	RateLimit       int           // requests per window per terminal, 0 = unlimited
	RateLimitWindow time.Duration
}

// CheckoutConfig holds limits for in-memory checkout sessions
type CheckoutConfig struct {
	MaxEntries      int // per session, 0 = unbounded
	MaxOpenSessions int // per process, 0 = unbounded
}

// DeliveryConfig holds receipt delivery settings
type DeliveryConfig struct {
	StoreName   string
	CountryCode string   // dialling prefix added to 10-digit local numbers
	Channels    []string // enabled channels: PRINT, WHATSAPP, SMS
	PrintWidth  int      // characters per printed line
	Locale      string   // BCP 47 tag used for digit grouping and labels
	Timeout     time.Duration
}

// IdempotencyConfig controls replay protection for payment submissions
type IdempotencyConfig struct {
	Enabled      bool
	TTL          time.Duration // how long a key stays claimed
	RequireRedis bool          // fail startup instead of falling back to memory
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds terminal token settings. An empty Secret disables authentication.
type AuthConfig struct {
	Secret   string // HMAC key, at least 32 bytes
	Issuer   string
	TokenTTL time.Duration
}

// Enabled reports whether terminals must present a bearer token
func (a AuthConfig) Enabled() bool {
	return a.Secret != ""
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to export traces
	MetricsEnabled    bool    // Whether to export metrics
	LogsEnabled       bool    // Whether to export logs through the zap bridge
	CollectorEndpoint string  // OTEL Collector gRPC endpoint, e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // non-TLS connection, development only
	MetricsInterval   time.Duration
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with CHECKOUT_ prefix (e.g., CHECKOUT_DELIVERY_STORE_NAME)
// 2. config.toml
// 3. Built-in defaults
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetDefault("idempotency.enabled", true)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "./configs", "/etc/pos-checkout"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
			AllowOrigins:    v.GetStringSlice("http.allow_origins"),
			RateLimit:       v.GetInt("http.rate_limit"),
			RateLimitWindow: v.GetDuration("http.rate_limit_window"),
		},
		Checkout: CheckoutConfig{
			MaxEntries:      v.GetInt("checkout.max_entries"),
			MaxOpenSessions: v.GetInt("checkout.max_open_sessions"),
		},
		Delivery: DeliveryConfig{
			StoreName:   v.GetString("delivery.store_name"),
			CountryCode: v.GetString("delivery.country_code"),
			Channels:    v.GetStringSlice("delivery.channels"),
			PrintWidth:  v.GetInt("delivery.print_width"),
			Locale:      v.GetString("delivery.locale"),
			Timeout:     v.GetDuration("delivery.timeout"),
		},
		Idempotency: IdempotencyConfig{
			Enabled:      v.GetBool("idempotency.enabled"),
			TTL:          v.GetDuration("idempotency.ttl"),
			RequireRedis: v.GetBool("idempotency.require_redis"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Secret:   v.GetString("auth.secret"),
			Issuer:   v.GetString("auth.issuer"),
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pos-checkout"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Delivery.StoreName == "" {
		cfg.Delivery.StoreName = "Store"
	}
	if cfg.Delivery.CountryCode == "" {
		cfg.Delivery.CountryCode = "91"
	}
	if len(cfg.Delivery.Channels) == 0 {
		cfg.Delivery.Channels = []string{"PRINT", "WHATSAPP", "SMS"}
	}
	if cfg.Delivery.PrintWidth == 0 {
		cfg.Delivery.PrintWidth = 40
	}
	if cfg.Delivery.Locale == "" {
		cfg.Delivery.Locale = "en-IN"
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 5 * time.Second
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Redis.Host != "" && cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.App.Name
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit cannot be negative")
	}
	if c.Checkout.MaxEntries < 0 {
		return fmt.Errorf("checkout.max_entries cannot be negative")
	}
	if c.Checkout.MaxOpenSessions < 0 {
		return fmt.Errorf("checkout.max_open_sessions cannot be negative")
	}
	for i, ch := range c.Delivery.Channels {
		ch = strings.ToUpper(strings.TrimSpace(ch))
		switch ch {
		case "PRINT", "WHATSAPP", "SMS":
			c.Delivery.Channels[i] = ch
		default:
			return fmt.Errorf("delivery.channels: unknown channel %q", ch)
		}
	}
	if c.Delivery.PrintWidth < 24 {
		return fmt.Errorf("delivery.print_width must be at least 24, got %d", c.Delivery.PrintWidth)
	}
	for _, r := range c.Delivery.CountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("delivery.country_code must be digits only, got %q", c.Delivery.CountryCode)
		}
	}
	if c.Idempotency.TTL < 0 {
		return fmt.Errorf("idempotency.ttl cannot be negative")
	}
	if c.Idempotency.RequireRedis && c.Redis.Host == "" {
		return fmt.Errorf("idempotency.require_redis is set but redis.host is empty")
	}
	if c.Auth.Enabled() && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth.secret must be at least 32 bytes")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.App.Env == "production" && c.Telemetry.Insecure && (c.Telemetry.Enabled || c.Telemetry.MetricsEnabled || c.Telemetry.LogsEnabled) {
		return fmt.Errorf("telemetry.insecure must be false in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
