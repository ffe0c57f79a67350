// Command terminal-token issues bearer tokens for POS terminals using the
// same auth settings as the checkout server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erp/checkout/internal/infrastructure/auth"
	"github.com/erp/checkout/internal/infrastructure/config"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		terminalID string
		ttl        time.Duration
		logLevel   string
	)

	flag.StringVar(&terminalID, "terminal", "", "Terminal ID to issue the token for (required)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token_ttl)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	if terminalID == "" {
		fmt.Fprintln(os.Stderr, "Usage: terminal-token -terminal <id> [-ttl 12h]")
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.Auth.Enabled() {
		log.Fatal("auth.secret is not configured")
	}
	if ttl > 0 {
		cfg.Auth.TokenTTL = ttl
	}

	token, expiresAt, err := auth.NewTerminalTokenService(cfg.Auth).Issue(terminalID)
	if err != nil {
		log.Fatal("Failed to issue token", zap.String("terminal", terminalID), zap.Error(err))
	}

	log.Info("Issued terminal token",
		zap.String("terminal", terminalID),
		zap.Time("expires_at", expiresAt),
	)
	fmt.Println(token)
}
