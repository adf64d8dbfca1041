// Package cache stores fetched datasets, parsed descriptions and rendered
// artifacts between runs.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory; used by the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: never stores anything (--no-cache)
//
// All backends treat a missing or expired entry as a miss, not an error.
//
// # Keys
//
// A [Keyer] derives keys from the inputs that determine an entry, so
// changing any render option or dataset byte yields a new key. Use
// [NewScopedKeyer] to namespace keys when several deployments share one
// Redis database.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// GetJSON decodes a cached JSON value into v. An undecodable entry is
// reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
