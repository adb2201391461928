package cache

import (
	"context"
	"time"
)

// Cache is the key-value contract the service needs.
// Values are stored as JSON.
type Cache interface {
	// Get unmarshals the value into dest. found is false on a miss and
	// dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX stores value only when key is absent; reports whether it did
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the connection
	Ping(ctx context.Context) error
}
