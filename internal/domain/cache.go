package domain

import (
	"context"
	"time"
)

// CacheError is an error reported by the cache itself.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key or hash field does not exist.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the key-value port behind sessions, the query cache, the
// notification queue and upload progress. RedisCacheAdapter implements it.
type Cache interface {
	// Get returns ErrCacheMiss for a missing key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; a zero expiration keeps it until deleted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error

	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, field string, value string) error
	Expire(ctx context.Context, key string, expiration time.Duration) error

	// Incr atomically increments the integer at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	RPush(ctx context.Context, key string, values ...string) error
	// LPopCount pops up to count elements from the head of the list. A missing
	// list yields an empty slice and no error.
	LPopCount(ctx context.Context, key string, count int) ([]string, error)
}
