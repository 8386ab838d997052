package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var tokenBucket = []byte("verification_tokens")

// BoltTokenStore keeps tokens in a local bbolt file
type BoltTokenStore struct {
	db *bbolt.DB
}

// NewBoltTokenStore opens (or creates) the bbolt file at path
func NewBoltTokenStore(path string) (*BoltTokenStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create token store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tokenBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create token bucket: %w", err)
	}

	return &BoltTokenStore{db: db}, nil
}

// Put stores the record as JSON
func (s *BoltTokenStore) Put(ctx context.Context, key string, rec TokenRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tokenBucket).Put([]byte(key), value)
	})
}

// Get loads the record under key
func (s *BoltTokenStore) Get(ctx context.Context, key string) (*TokenRecord, error) {
	var rec *TokenRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket(tokenBucket).Get([]byte(key))
		if value == nil {
			return nil
		}
		rec = &TokenRecord{}
		return json.Unmarshal(value, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read token record: %w", err)
	}

	return rec, nil
}

// Delete removes key inside a single write transaction
func (s *BoltTokenStore) Delete(ctx context.Context, key string) (bool, error) {
	deleted := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(tokenBucket)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		deleted = true
		return b.Delete([]byte(key))
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete token record: %w", err)
	}

	return deleted, nil
}

// Close closes the bbolt file
func (s *BoltTokenStore) Close() error {
	return s.db.Close()
}
