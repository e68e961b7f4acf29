package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const queryService = "query"

// QueryKey identifies one cached read. Scope separates users that may see
// different data for the same resource; Params separates list filters.
type QueryKey struct {
	Resource string
	Scope    string
	Params   string
}

type queryEntry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// QueryCache gives reads stale-time / gc-time semantics on top of domain.Cache.
// Entries younger than staleTime are served without refetching. Older entries
// are refetched, and served as-is if the refetch fails. Entries are removed by
// TTL after gcTime.
type QueryCache struct {
	cache        domain.Cache
	staleTime    time.Duration
	gcTime       time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group
}

func NewQueryCache(cache domain.Cache, cfg config.QueryCacheConfig) *QueryCache {
	return &QueryCache{
		cache:        cache,
		staleTime:    cfg.StaleTime,
		gcTime:       cfg.GCTime,
		fetchTimeout: cfg.FetchTimeout,
		now:          time.Now,
	}
}

func versionKey(resource string) string {
	return GenerateCacheKey(queryService, resource, "version")
}

func (q *QueryCache) hashKey(ctx context.Context, key QueryKey) string {
	version, err := q.cache.Get(ctx, versionKey(key.Resource))
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("QueryCache: version lookup failed", zap.String("resource", key.Resource), zap.Error(err))
		}
		version = "0"
	}
	scope := key.Scope
	if scope == "" {
		scope = "global"
	}
	return GenerateCacheKey(queryService, key.Resource, scope, "v"+version)
}

func field(key QueryKey) string {
	if key.Params == "" {
		return "_"
	}
	return key.Params
}

// Fetch returns the cached value for key or calls fetch. Concurrent calls for
// the same key share one fetch, which keeps the first caller's values but not
// its cancellation.
func Fetch[T any](ctx context.Context, q *QueryCache, key QueryKey, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if q == nil {
		return fetch(ctx)
	}
	log := logger.Get()
	hashKey := q.hashKey(ctx, key)
	fieldName := field(key)

	var stale *T
	if raw, err := q.cache.HGet(ctx, hashKey, fieldName); err == nil {
		var entry queryEntry
		var value T
		if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
			if jsonErr = json.Unmarshal(entry.Data, &value); jsonErr == nil {
				if q.now().Sub(entry.FetchedAt) < q.staleTime {
					log.Debug("QueryCache: fresh hit", zap.String("key", hashKey), zap.String("params", fieldName))
					return value, nil
				}
				stale = &value
			}
		}
		if stale == nil {
			log.Warn("QueryCache: dropping undecodable entry", zap.String("key", hashKey))
		}
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Warn("QueryCache: lookup failed, fetching from backend", zap.String("key", hashKey), zap.Error(err))
	}

	result, err, _ := q.group.Do(hashKey+"|"+fieldName, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		if q.fetchTimeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, q.fetchTimeout)
			defer cancel()
		}
		value, fetchErr := fetch(shared)
		if fetchErr != nil {
			return nil, fetchErr
		}
		q.store(shared, hashKey, fieldName, value)
		return value, nil
	})
	if err != nil {
		if stale != nil {
			log.Warn("QueryCache: refetch failed, serving stale data", zap.String("key", hashKey), zap.Error(err))
			return *stale, nil
		}
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("query cache: unexpected shared result type %T", result)
	}
	return value, nil
}

func (q *QueryCache) store(ctx context.Context, hashKey, fieldName string, value interface{}) {
	log := logger.Get()
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn("QueryCache: value not cacheable", zap.String("key", hashKey), zap.Error(err))
		return
	}
	raw, err := json.Marshal(queryEntry{Data: data, FetchedAt: q.now()})
	if err != nil {
		return
	}
	if err := q.cache.HSet(ctx, hashKey, fieldName, string(raw)); err != nil {
		log.Warn("QueryCache: store failed", zap.String("key", hashKey), zap.Error(err))
		return
	}
	if q.gcTime > 0 {
		if err := q.cache.Expire(ctx, hashKey, q.gcTime); err != nil {
			log.Warn("QueryCache: expire failed", zap.String("key", hashKey), zap.Error(err))
		}
	}
}

// Invalidate makes every cached read of the given resources unreachable.
func (q *QueryCache) Invalidate(ctx context.Context, resources ...string) {
	if q == nil {
		return
	}
	for _, resource := range resources {
		if _, err := q.cache.Incr(ctx, versionKey(resource)); err != nil {
			logger.Get().Warn("QueryCache: invalidate failed", zap.String("resource", resource), zap.Error(err))
		}
	}
}
