package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Upstream.CoinGeckoURL)
	assert.Equal(t, "https://api.gemini.com", cfg.Upstream.GeminiURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 1, cfg.Signal.HistoryDays)
	assert.Equal(t, 14, cfg.Signal.SMAPeriod)
	assert.Equal(t, 24*time.Hour, cfg.Telegram.MaxAuthAge)
	assert.Equal(t, 15*time.Minute, cfg.Verification.TokenTTL)
	assert.Equal(t, "memory", cfg.TokenStore.Type)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadConfigLegacyEnvironment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("EMAIL_USER", "bot@example.com")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "https://app.example.com", cfg.App.FrontendURL)
	assert.Equal(t, "bot@example.com", cfg.Email.SMTP.Username)
}

func TestLoadConfigSESCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("EMAIL_PROVIDER", "ses")
	t.Setenv("EMAIL_SES_ACCESSKEY", "AKIAEXAMPLE")
	t.Setenv("EMAIL_SES_SECRETKEY", "wJalrXUtnFEMI")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ses", cfg.Email.Provider)
	assert.Equal(t, "AKIAEXAMPLE", cfg.Email.SES.AccessKey)
	assert.Equal(t, "wJalrXUtnFEMI", cfg.Email.SES.SecretKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: "9090"
tokenStore:
  type: bolt
  bolt:
    path: /tmp/tokens.db
signal:
  smaPeriod: 20
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "bolt", cfg.TokenStore.Type)
	assert.Equal(t, "/tmp/tokens.db", cfg.TokenStore.Bolt.Path)
	assert.Equal(t, 20, cfg.Signal.SMAPeriod)
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: "3000"},
			Logging:    LoggingConfig{Level: "info"},
			Upstream:   UpstreamConfig{CoinGeckoURL: "https://api.coingecko.com/api/v3", GeminiURL: "https://api.gemini.com"},
			Signal:     SignalConfig{HistoryDays: 1, SMAPeriod: 14},
			Auth:       AuthConfig{JWTSecret: "secret"},
			App:        AppConfig{FrontendURL: "http://localhost:3000"},
			Email:      EmailConfig{Provider: "log"},
			TokenStore: TokenStoreConfig{Type: "memory"},
			RateLimit:  RateLimitConfig{RequestsPerMinute: 30, BurstSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "non numeric port", mutate: func(c *Config) { c.Server.Port = "http" }, wantErr: true},
		{name: "unknown email provider", mutate: func(c *Config) { c.Email.Provider = "pigeon" }, wantErr: true},
		{name: "unknown token store", mutate: func(c *Config) { c.TokenStore.Type = "etcd" }, wantErr: true},
		{name: "redis without url", mutate: func(c *Config) { c.TokenStore.Type = "redis" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.TokenStore.Type = "postgres" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "zero sma period", mutate: func(c *Config) { c.Signal.SMAPeriod = 0 }, wantErr: true},
		{
			name: "redis with url",
			mutate: func(c *Config) {
				c.TokenStore.Type = "redis"
				c.TokenStore.Redis.URL = "redis://localhost:6379/0"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
