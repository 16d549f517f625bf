// Package kv provides the small embedded key/value persistence layer used to
// keep upload state alive across client restarts. Consumers depend on the
// Store interface so the backing medium can be swapped without touching the
// upload pipeline.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is a minimal durable key/value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
