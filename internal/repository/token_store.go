package repository

import (
	"context"
	"time"
)

// TokenRecord is what a verification token resolves to
type TokenRecord struct {
	Email     string    `json:"email" db:"email"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the record is past its expiry at now
func (r TokenRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// TokenStore keeps verification tokens keyed by an opaque key.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// Put stores or replaces the record for key
	Put(ctx context.Context, key string, rec TokenRecord) error

	// Get returns the record for key, or nil when absent
	Get(ctx context.Context, key string) (*TokenRecord, error)

	// Delete removes key and reports whether this call removed it
	Delete(ctx context.Context, key string) (bool, error)

	// Close releases the underlying resources
	Close() error
}
