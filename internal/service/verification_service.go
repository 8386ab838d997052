package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/yourorg/signal-service/internal/email"
	"github.com/yourorg/signal-service/internal/events"
	"github.com/yourorg/signal-service/internal/repository"
)

// DefaultTokenTTL is how long a verification link stays valid
const DefaultTokenTTL = 15 * time.Minute

const tokenBytes = 16

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrTokenExpired  = errors.New("token has expired")
	ErrEmailDelivery = errors.New("failed to send verification email")
)

// VerificationConfig holds the parameters of VerificationService
type VerificationConfig struct {
	TokenTTL    time.Duration
	FrontendURL string
	EventTopic  string
}

// VerificationService issues and redeems single-use email verification tokens
type VerificationService struct {
	store     repository.TokenStore
	sender    email.Sender
	publisher events.Publisher
	cfg       VerificationConfig
	logger    *zap.Logger
	now       func() time.Time
	rand      io.Reader
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	store repository.TokenStore,
	sender email.Sender,
	publisher events.Publisher,
	cfg VerificationConfig,
	logger *zap.Logger,
) *VerificationService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &VerificationService{
		store:     store,
		sender:    sender,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		rand:      rand.Reader,
	}
}

// Issue creates a token for addr and emails the verification link
func (s *VerificationService) Issue(ctx context.Context, addr string) error {
	token, err := s.newToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	key := tokenKey(token)
	rec := repository.TokenRecord{
		Email:     addr,
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	}
	if err := s.store.Put(ctx, key, rec); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	link := s.verificationLink(token)
	msg := email.Message{
		To:      addr,
		Subject: "Verify your email address",
		Text: fmt.Sprintf("Click the link below to verify your email address:\n\n%s\n\nThis link expires in %d minutes.",
			link, int(s.cfg.TokenTTL/time.Minute)),
		HTML: fmt.Sprintf(`<p>Click the link below to verify your email address:</p><p><a href="%s">Verify email</a></p><p>This link expires in %d minutes.</p>`,
			link, int(s.cfg.TokenTTL/time.Minute)),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("email", addr), zap.Error(err))
		if _, delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove undelivered token", zap.Error(delErr))
		}
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	s.logger.Info("Verification email sent", zap.String("email", addr))
	s.publishEvent(ctx, events.VerificationRequested, addr)
	return nil
}

// Redeem consumes a token and returns the email it was issued for
func (s *VerificationService) Redeem(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	key := tokenKey(token)
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if rec == nil {
		return "", ErrInvalidToken
	}

	if rec.Expired(s.now()) {
		if _, err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove expired token", zap.Error(err))
		}
		return "", ErrTokenExpired
	}

	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		return "", fmt.Errorf("consume token: %w", err)
	}
	if !deleted {
		// redeemed concurrently
		return "", ErrInvalidToken
	}

	s.logger.Info("Email verified", zap.String("email", rec.Email))
	s.publishEvent(ctx, events.EmailVerified, rec.Email)
	return rec.Email, nil
}

func (s *VerificationService) newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.rand, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *VerificationService) verificationLink(token string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/verify?token=" + url.QueryEscape(token)
}

func (s *VerificationService) publishEvent(ctx context.Context, eventType, addr string) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, s.cfg.EventTopic, addr, eventType, map[string]string{"email": addr}); err != nil {
		s.logger.Warn("failed to publish verification event", zap.String("type", eventType), zap.Error(err))
	}
}

// tokenKey is the storage key of a token; raw tokens are never stored
func tokenKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
