// Package storage provides the durable key-value persistence behind
// the chat log, with interchangeable memory, Redis and Postgres
// backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// KeyValueStore is the injected persistence capability. The session
// core depends on this interface, never on a concrete backend, so
// tests substitute the in-memory implementation.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
