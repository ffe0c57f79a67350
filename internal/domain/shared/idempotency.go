package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied request keys so a retried
// request is recognised instead of being applied twice
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if it is already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the same key can be retried after a failure
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
