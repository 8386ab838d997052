package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/config"
)

type mockSES struct {
	sesiface.SESAPI
	mock.Mock
}

func (m *mockSES) SendEmailWithContext(ctx aws.Context, input *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

func testMessage() Message {
	return Message{
		To:      "trader@example.com",
		Subject: "Verify your email",
		Text:    "Open http://localhost:3000/verify?token=abc",
		HTML:    `<a href="http://localhost:3000/verify?token=abc">Verify</a>`,
	}
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Provider: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.EmailConfig{Provider: "smtp", SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: "587"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: "smtp", SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: "smtp"}}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewSender(config.EmailConfig{Provider: "fax"}, zap.NewNop())
	assert.Error(t, err)
}

func newTestSMTPSender(t *testing.T, from string) *SMTPSender {
	t.Helper()
	sender, err := NewSMTPSender(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "bot@example.com",
		Password: "secret",
	}, from, zap.NewNop())
	require.NoError(t, err)
	return sender
}

func TestSMTPSenderSend(t *testing.T) {
	sender := newTestSMTPSender(t, "")

	var sent *mail.Msg
	sender.sendMail = func(ctx context.Context, m *mail.Msg) error {
		sent = m
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	require.NotNil(t, sent)

	from, err := sent.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", from)

	to, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"trader@example.com"}, to)

	var buf bytes.Buffer
	_, err = sent.WriteTo(&buf)
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "Subject: Verify your email")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain")
	assert.Contains(t, body, "text/html")
	assert.Contains(t, body, "verify?token")
}

func TestSMTPSenderSendFailure(t *testing.T) {
	sender := newTestSMTPSender(t, "noreply@example.com")
	sender.sendMail = func(context.Context, *mail.Msg) error {
		return errors.New("connection refused")
	}

	err := sender.Send(context.Background(), testMessage())
	assert.Error(t, err)
}

func TestSMTPSenderPassesContext(t *testing.T) {
	sender := newTestSMTPSender(t, "noreply@example.com")
	sender.sendMail = func(ctx context.Context, m *mail.Msg) error {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sender.Send(ctx, testMessage()), context.Canceled)
}

func TestSMTPSenderRejectsBadRecipient(t *testing.T) {
	sender := newTestSMTPSender(t, "noreply@example.com")
	sender.sendMail = func(context.Context, *mail.Msg) error {
		t.Fatal("sendMail should not be called")
		return nil
	}

	msg := testMessage()
	msg.To = "not an address"

	assert.Error(t, sender.Send(context.Background(), msg))
}

func TestSESSenderSend(t *testing.T) {
	client := &mockSES{}
	client.On("SendEmailWithContext", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.StringValue(in.Source) == "noreply@example.com" &&
			aws.StringValue(in.Destination.ToAddresses[0]) == "trader@example.com" &&
			aws.StringValue(in.Message.Subject.Data) == "Verify your email" &&
			in.Message.Body.Html != nil && in.Message.Body.Text != nil
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	sender := newSESSender(client, "noreply@example.com", zap.NewNop())
	require.NoError(t, sender.Send(context.Background(), testMessage()))

	client.AssertExpectations(t)
}

func TestSESSenderSendFailure(t *testing.T) {
	client := &mockSES{}
	client.On("SendEmailWithContext", mock.Anything, mock.Anything).Return(nil, errors.New("MessageRejected"))

	sender := newSESSender(client, "noreply@example.com", zap.NewNop())
	assert.Error(t, sender.Send(context.Background(), testMessage()))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(zap.NewNop()).Send(context.Background(), testMessage()))
}
