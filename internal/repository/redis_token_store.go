package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// expiredRetention is how long a record outlives its expiry in Redis
const expiredRetention = time.Hour

// RedisTokenStore keeps tokens in Redis until an hour past their expiry
type RedisTokenStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisTokenStore creates a Redis backed store
func NewRedisTokenStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (s *RedisTokenStore) key(k string) string {
	return s.prefix + k
}

// Put stores the record as JSON until it expires
func (s *RedisTokenStore) Put(ctx context.Context, key string, rec TokenRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	// keep expired records around so redemption can report them as expired
	ttl := time.Until(rec.ExpiresAt) + expiredRetention
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		s.logger.Error("failed to store token", zap.Error(err))
		return err
	}
	return nil
}

// Get loads the record under key
func (s *RedisTokenStore) Get(ctx context.Context, key string) (*TokenRecord, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.Error("failed to get token", zap.Error(err))
		return nil, err
	}

	var rec TokenRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}
	return &rec, nil
}

// Delete removes key; DEL is atomic so only one caller sees true
func (s *RedisTokenStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		s.logger.Error("failed to delete token", zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
