package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/client"
	"github.com/yourorg/signal-service/internal/config"
	"github.com/yourorg/signal-service/internal/email"
	"github.com/yourorg/signal-service/internal/events"
	"github.com/yourorg/signal-service/internal/handler"
	"github.com/yourorg/signal-service/internal/repository"
	"github.com/yourorg/signal-service/internal/server"
	"github.com/yourorg/signal-service/internal/service"
	signalengine "github.com/yourorg/signal-service/internal/signal"
)

// app holds the components shared by the commands
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	publisher events.Publisher
	producer  *events.Producer
	signals   *service.SignalService
}

func newApp(path string) (*app, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := createLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, publisher: events.Nop{}}

	if cfg.Kafka.Enabled {
		a.producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID, logger)
		a.publisher = a.producer
		logger.Info("Initialized Kafka producer", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	httpClient := client.NewHTTPClient(cfg.Upstream.Timeout)
	coinGecko := client.NewCoinGeckoClient(cfg.Upstream.CoinGeckoURL, httpClient, logger)
	gemini := client.NewGeminiClient(cfg.Upstream.GeminiURL, httpClient, logger)

	a.signals = service.NewSignalService(
		coinGecko,
		gemini,
		coinGecko,
		signalengine.NewEngine(cfg.Signal.SMAPeriod),
		cfg.Signal.HistoryDays,
		a.publisher,
		cfg.Events.SignalTopic,
		logger,
	)

	return a, nil
}

func (a *app) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("Failed to close Kafka producer", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func serve(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(configPath(cmd))
	if err != nil {
		return err
	}
	defer a.close()

	cfg, logger := a.cfg, a.logger

	if cfg.Telegram.BotToken == "" {
		logger.Warn("BOT_TOKEN is not set, Telegram login will fail")
	}
	if cfg.Auth.JWTSecret == "change-me" {
		logger.Warn("Using the default JWT secret")
	}

	tokenStore, err := repository.NewTokenStore(ctx, cfg.TokenStore, logger)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer tokenStore.Close()

	sender, err := email.NewSender(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}

	authService := service.NewAuthService(service.AuthConfig{
		BotToken:            cfg.Telegram.BotToken,
		MaxAuthAge:          cfg.Telegram.MaxAuthAge,
		JWTSecret:           cfg.Auth.JWTSecret,
		AccessTokenDuration: cfg.Auth.AccessTokenDuration,
		EventTopic:          cfg.Events.AuthTopic,
	}, a.publisher, logger)

	verificationService := service.NewVerificationService(tokenStore, sender, a.publisher, service.VerificationConfig{
		TokenTTL:    cfg.Verification.TokenTTL,
		FrontendURL: cfg.App.FrontendURL,
		EventTopic:  cfg.Events.AuthTopic,
	}, logger)

	router := server.NewRouter(server.Handlers{
		Health: handler.NewHealthHandler(cfg.TokenStore.Type, cfg.Kafka.Enabled),
		Signal: handler.NewSignalHandler(a.signals, logger),
		Auth:   handler.NewAuthHandler(authService, verificationService, logger),
	}, authService, server.RouterConfig{
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		BurstSize:         cfg.RateLimit.BurstSize,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited properly")
	return nil
}

func printSignal(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(configPath(cmd))
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.signals.Generate(ctx, cmd.String("pair"))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(handler.NewSignalResponse(report), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
