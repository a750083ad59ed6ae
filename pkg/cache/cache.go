// Package cache provides response caching for the artlist service clients.
//
// Three backends implement the same interface: a file-based cache for normal
// CLI usage, a Redis cache for shared environments where several builders
// run against the same services, and a null cache for tests and --no-cache
// runs. The dependency-graph client does not use this package; its disk
// cache needs a deterministic file layout of its own.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte values under string keys with a per-entry TTL.
// A TTL of 0 means the entry never expires.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
