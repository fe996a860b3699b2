// Package statestore holds the key/value blob backends that carts, favorites
// and other per-session state are persisted to.
package statestore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been stored under the key.
var ErrNotFound = errors.New("state not found")

// Backend stores whole-state blobs under fixed keys.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
