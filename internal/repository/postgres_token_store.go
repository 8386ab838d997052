package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const tokenSchema = `
CREATE TABLE IF NOT EXISTS verification_tokens (
	token_hash TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresTokenStore keeps tokens in the verification_tokens table
type PostgresTokenStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresTokenStore creates a Postgres backed store
func NewPostgresTokenStore(db *sqlx.DB, logger *zap.Logger) *PostgresTokenStore {
	return &PostgresTokenStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the token table if it does not exist
func (s *PostgresTokenStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, tokenSchema); err != nil {
		s.logger.Error("failed to create verification_tokens table", zap.Error(err))
		return err
	}
	return nil
}

// Put inserts or replaces the record under key
func (s *PostgresTokenStore) Put(ctx context.Context, key string, rec TokenRecord) error {
	query := `
		INSERT INTO verification_tokens (token_hash, email, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE
		SET email = EXCLUDED.email, expires_at = EXCLUDED.expires_at`

	if _, err := s.db.ExecContext(ctx, query, key, rec.Email, rec.ExpiresAt); err != nil {
		s.logger.Error("failed to store token", zap.Error(err))
		return err
	}
	return nil
}

// Get loads the record under key
func (s *PostgresTokenStore) Get(ctx context.Context, key string) (*TokenRecord, error) {
	query := `SELECT email, expires_at FROM verification_tokens WHERE token_hash = $1`

	var rec TokenRecord
	if err := s.db.GetContext(ctx, &rec, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Error("failed to get token", zap.Error(err))
		return nil, err
	}
	return &rec, nil
}

// Delete removes key; only the transaction that deletes the row sees true
func (s *PostgresTokenStore) Delete(ctx context.Context, key string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE token_hash = $1`, key)
	if err != nil {
		s.logger.Error("failed to delete token", zap.Error(err))
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Close closes the database handle
func (s *PostgresTokenStore) Close() error {
	return s.db.Close()
}
