package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/events"
)

// ErrTelegramNotConfigured is returned when no bot token is configured
var ErrTelegramNotConfigured = errors.New("telegram bot token not configured")

// AuthConfig holds the parameters of AuthService
type AuthConfig struct {
	BotToken            string
	MaxAuthAge          time.Duration
	JWTSecret           string
	AccessTokenDuration time.Duration
	EventTopic          string
}

// LoginResult is returned after a verified Telegram login
type LoginResult struct {
	User        map[string]string
	AccessToken string
	ExpiresAt   time.Time
}

// SessionClaims are the identity fields carried by an access token
type SessionClaims struct {
	TelegramID string
	Username   string
}

// AuthService verifies Telegram logins and issues access tokens
type AuthService struct {
	cfg       AuthConfig
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthConfig, publisher events.Publisher, logger *zap.Logger) *AuthService {
	if cfg.MaxAuthAge <= 0 {
		cfg.MaxAuthAge = DefaultTelegramMaxAge
	}
	if cfg.AccessTokenDuration <= 0 {
		cfg.AccessTokenDuration = 24 * time.Hour
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AuthService{
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// TelegramLogin verifies a login widget payload and issues an access token
func (s *AuthService) TelegramLogin(ctx context.Context, raw string) (*LoginResult, error) {
	if s.cfg.BotToken == "" {
		s.logger.Error("telegram login attempted without a bot token")
		return nil, ErrTelegramNotConfigured
	}

	user, err := VerifyTelegramData(raw, s.cfg.BotToken, s.cfg.MaxAuthAge, s.now())
	if err != nil {
		s.logger.Debug("telegram verification failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Verified Telegram user",
		zap.String("id", user["id"]),
		zap.String("username", user["username"]))

	token, expiresAt, err := s.generateToken(user["id"], user["username"])
	if err != nil {
		return nil, err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, s.cfg.EventTopic, user["id"], events.TelegramLoginVerified, map[string]string{
		"telegram_id": user["id"],
		"username":    user["username"],
	}); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}

	return &LoginResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// generateToken creates a signed access token for a Telegram user
func (s *AuthService) generateToken(telegramID, username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenDuration)

	claims := jwt.MapClaims{
		"sub":      telegramID,
		"username": username,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
		"type":     "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ValidateToken validates an access token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	// Check token type
	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, errors.New("invalid token type")
	}

	telegramID, ok := claims["sub"].(string)
	if !ok || telegramID == "" {
		return nil, errors.New("invalid subject in token")
	}
	username, _ := claims["username"].(string)

	return &SessionClaims{
		TelegramID: telegramID,
		Username:   username,
	}, nil
}
