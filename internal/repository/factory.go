package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/config"
)

const connectAttempts = 5

// NewTokenStore builds the backend selected by cfg.Type
func NewTokenStore(ctx context.Context, cfg config.TokenStoreConfig, logger *zap.Logger) (TokenStore, error) {
	switch cfg.Type {
	case "redis":
		return newRedisStore(ctx, cfg.Redis, logger)
	case "bolt":
		logger.Info("Using bolt token store", zap.String("path", cfg.Bolt.Path))
		return NewBoltTokenStore(cfg.Bolt.Path)
	case "postgres":
		return newPostgresStore(ctx, cfg.Postgres, logger)
	default:
		logger.Info("Using in-memory token store")
		return NewMemoryTokenStore(), nil
	}
}

func newRedisStore(ctx context.Context, cfg config.RedisStoreConfig, logger *zap.Logger) (TokenStore, error) {
	options, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("Failed to parse Redis URL, using it as an address", zap.Error(err))
		options = &redis.Options{Addr: cfg.URL}
	}

	client := redis.NewClient(options)

	err = retry(ctx, logger, "redis", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", options.Addr))
	return NewRedisTokenStore(client, cfg.Prefix, logger), nil
}

func newPostgresStore(ctx context.Context, cfg config.PostgresStoreConfig, logger *zap.Logger) (TokenStore, error) {
	var db *sqlx.DB

	err := retry(ctx, logger, "postgres", func() error {
		var err error
		db, err = sqlx.ConnectContext(ctx, "pgx", cfg.URL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := NewPostgresTokenStore(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Connected to Postgres token store")
	return store, nil
}

// retry runs op with exponential backoff, used for startup connections only
func retry(ctx context.Context, logger *zap.Logger, name string, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectAttempts), ctx)

	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		logger.Warn("Connection attempt failed, retrying",
			zap.String("backend", name),
			zap.Error(err),
			zap.Duration("backoff", wait))
	})
}
