package email

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/config"
)

type sendMailFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPSender delivers email through an SMTP relay with PLAIN auth and
// opportunistic STARTTLS
type SMTPSender struct {
	from     string
	sendMail sendMailFunc
	logger   *zap.Logger
}

// NewSMTPSender creates an SMTP sender; From falls back to the username
func NewSMTPSender(cfg config.SMTPConfig, from string, logger *zap.Logger) (*SMTPSender, error) {
	if from == "" {
		from = cfg.Username
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", cfg.Port, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{
		from: from,
		sendMail: func(ctx context.Context, m *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, m)
		},
		logger: logger,
	}, nil
}

// Send delivers msg as multipart/alternative
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	if err := s.sendMail(ctx, m); err != nil {
		s.logger.Error("failed to send email", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("smtp send failed: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// buildMessage renders msg with a text body and an HTML alternative
func buildMessage(from string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(msg.To); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	case msg.HTML != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
	}

	return m, nil
}
