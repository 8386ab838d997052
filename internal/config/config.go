package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server       ServerConfig
	Logging      LoggingConfig
	Upstream     UpstreamConfig
	Signal       SignalConfig
	Telegram     TelegramConfig
	Auth         AuthConfig
	Verification VerificationConfig
	App          AppConfig
	Email        EmailConfig
	TokenStore   TokenStoreConfig
	Kafka        KafkaConfig
	Events       EventsConfig
	RateLimit    RateLimitConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level string `validate:"oneof=debug info warn error"`
	File  string
}

// UpstreamConfig holds the price API endpoints
type UpstreamConfig struct {
	CoinGeckoURL string `validate:"required,url"`
	GeminiURL    string `validate:"required,url"`
	Timeout      time.Duration
}

// SignalConfig holds signal engine parameters
type SignalConfig struct {
	HistoryDays int `validate:"min=1"`
	SMAPeriod   int `validate:"min=1"`
}

// TelegramConfig holds Telegram login verification configuration
type TelegramConfig struct {
	BotToken   string
	MaxAuthAge time.Duration
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	JWTSecret           string `validate:"required"`
	AccessTokenDuration time.Duration
}

// VerificationConfig holds email verification token configuration
type VerificationConfig struct {
	TokenTTL time.Duration
}

// AppConfig holds frontend related configuration
type AppConfig struct {
	FrontendURL string `validate:"required,url"`
}

// EmailConfig holds outbound email configuration
type EmailConfig struct {
	Provider string `validate:"oneof=log smtp ses"`
	From     string
	SMTP     SMTPConfig
	SES      SESConfig
}

// SMTPConfig holds SMTP credentials
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// SESConfig holds AWS SES credentials
type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
}

// TokenStoreConfig selects the verification token backend
type TokenStoreConfig struct {
	Type     string `validate:"oneof=memory redis bolt postgres"`
	Redis    RedisStoreConfig
	Bolt     BoltStoreConfig
	Postgres PostgresStoreConfig
}

// RedisStoreConfig holds Redis token store configuration
type RedisStoreConfig struct {
	URL    string
	Prefix string
}

// BoltStoreConfig holds bbolt token store configuration
type BoltStoreConfig struct {
	Path string
}

// PostgresStoreConfig holds Postgres token store configuration
type PostgresStoreConfig struct {
	URL string
}

// KafkaConfig holds Kafka specific configuration
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	ClientID string
}

// EventsConfig holds event topic names
type EventsConfig struct {
	SignalTopic string
	AuthTopic   string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int `validate:"min=1"`
	BurstSize         int `validate:"min=1"`
}

// legacyEnv maps config keys to the environment variables the service has
// always been deployed with.
var legacyEnv = map[string]string{
	"server.port":             "PORT",
	"telegram.botToken":       "BOT_TOKEN",
	"app.frontendURL":         "FRONTEND_URL",
	"email.smtp.username":     "EMAIL_USER",
	"email.smtp.password":     "EMAIL_PASS",
	"tokenStore.redis.url":    "REDIS_URL",
	"tokenStore.postgres.url": "DATABASE_URL",
	"kafka.brokers":           "KAFKA_BROKERS",
	"auth.jwtSecret":          "JWT_SECRET",
	"email.ses.region":        "AWS_REGION",
	"logging.level":           "LOG_LEVEL",
}

// LoadConfig loads the configuration from an optional file, a .env file and
// environment variables
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Environment variables override
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and cross-field requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.TokenStore.Type {
	case "redis":
		if c.TokenStore.Redis.URL == "" {
			return errors.New("invalid config: tokenStore.redis.url is required for redis token store")
		}
	case "bolt":
		if c.TokenStore.Bolt.Path == "" {
			return errors.New("invalid config: tokenStore.bolt.path is required for bolt token store")
		}
	case "postgres":
		if c.TokenStore.Postgres.URL == "" {
			return errors.New("invalid config: tokenStore.postgres.url is required for postgres token store")
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("invalid config: kafka.brokers is required when kafka is enabled")
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	// Upstream defaults
	v.SetDefault("upstream.coingeckoURL", "https://api.coingecko.com/api/v3")
	v.SetDefault("upstream.geminiURL", "https://api.gemini.com")
	v.SetDefault("upstream.timeout", "15s")

	// Signal defaults
	v.SetDefault("signal.historyDays", 1)
	v.SetDefault("signal.smaPeriod", 14)

	// Telegram defaults
	v.SetDefault("telegram.botToken", "")
	v.SetDefault("telegram.maxAuthAge", "24h")

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "change-me")
	v.SetDefault("auth.accessTokenDuration", "24h")

	// Verification defaults
	v.SetDefault("verification.tokenTTL", "15m")
	v.SetDefault("app.frontendURL", "http://localhost:3000")

	// Email defaults
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "no-reply@localhost")
	v.SetDefault("email.smtp.host", "smtp.gmail.com")
	v.SetDefault("email.smtp.port", "587")
	v.SetDefault("email.ses.region", "us-east-1")
	v.SetDefault("email.ses.accessKey", "")
	v.SetDefault("email.ses.secretKey", "")

	// Token store defaults
	v.SetDefault("tokenStore.type", "memory")
	v.SetDefault("tokenStore.redis.prefix", "verification-token:")
	v.SetDefault("tokenStore.bolt.path", "data/tokens.db")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.clientID", "signal-service")
	v.SetDefault("events.signalTopic", "trading-signals")
	v.SetDefault("events.authTopic", "auth-events")

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 30)
	v.SetDefault("rateLimit.burstSize", 10)
}
