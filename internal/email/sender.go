package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/config"
)

// Message is a single outbound email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers outbound email
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender creates the sender selected by cfg.Provider
func NewSender(cfg config.EmailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From, logger)
	case "ses":
		return NewSESSender(cfg.SES, cfg.From, logger)
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log instead of delivering them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender for local development
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("Email (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}
