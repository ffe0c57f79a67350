package delivery

import (
	"context"

	"github.com/erp/checkout/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Sender hands a rendered message to an output: a printer, a chat gateway or an SMS provider
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg)
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogSender records messages in the service log instead of sending them.
// It backs every channel until a real printer or gateway is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(l *zap.Logger) *LogSender {
	return &LogSender{logger: l.Named("delivery.outbox")}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.For(ctx, s.logger).Info("receipt message",
		zap.String("channel", msg.Channel.String()),
		zap.String("destination", msg.Destination),
		zap.Int("body_length", len(msg.Body)),
		zap.String("link", msg.Link),
	)
	logger.For(ctx, s.logger).Debug("receipt body", zap.String("body", msg.Body))
	return nil
}
