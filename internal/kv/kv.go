// Package kv is the key-value persistence layer the recipe store sits on.
// Values are opaque strings; callers store JSON documents under named
// collection keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal string key-value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// SetWithTTL is Set for a key that expires after ttl. Expired keys read
	// as ErrNotFound. A non-positive ttl behaves like Set.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the JSON document stored under key into dst.
// It reports false when the key is missing.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("kv: decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	return SetJSONWithTTL(ctx, s, key, v, 0)
}

// SetJSONWithTTL encodes v as JSON and stores it under key for ttl.
func SetJSONWithTTL(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encoding %s: %w", key, err)
	}
	if ttl > 0 {
		return s.SetWithTTL(ctx, key, string(data), ttl)
	}
	return s.Set(ctx, key, string(data))
}
