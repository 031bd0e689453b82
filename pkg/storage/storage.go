package storage

import (
	"context"
	"time"
)

// Well-known keys for device-local state.
const (
	KeyToken    = "token"
	KeyUserData = "userData"
)

// Store is a small key/value store for client state. Get returns
// errors.ErrCacheMiss when the key is absent or expired. A zero ttl keeps the
// value until it is deleted.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
