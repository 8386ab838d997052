package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/config"
)

const charset = "UTF-8"

// SESSender delivers email through Amazon SES
type SESSender struct {
	client sesiface.SESAPI
	from   string
	logger *zap.Logger
}

// NewSESSender creates an SES sender; empty keys fall back to the default AWS credential chain
func NewSESSender(cfg config.SESConfig, from string, logger *zap.Logger) (*SESSender, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return newSESSender(ses.New(sess), from, logger), nil
}

func newSESSender(client sesiface.SESAPI, from string, logger *zap.Logger) *SESSender {
	return &SESSender{
		client: client,
		from:   from,
		logger: logger,
	}
}

// Send delivers msg with SendEmail
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	body := &ses.Body{}
	if msg.Text != "" {
		body.Text = &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Text)}
	}
	if msg.HTML != "" {
		body.Html = &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.HTML)}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(msg.To)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
			Body:    body,
		},
	}

	out, err := s.client.SendEmailWithContext(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("ses send failed: %w", err)
	}

	s.logger.Info("Email sent via SES",
		zap.String("to", msg.To),
		zap.String("messageId", aws.StringValue(out.MessageId)))
	return nil
}
