package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
)

// Store persists session records through the cache port.
type Store struct {
	cache domain.Cache
}

func NewStore(c domain.Cache) *Store {
	return &Store{cache: c}
}

func recordKey(id string) string {
	return cache.GenerateCacheKey("session", "record", id)
}

// Save writes s with the given lifetime.
func (s *Store) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return domain.NewInternalError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, recordKey(sess.ID), string(data), ttl); err != nil {
		return domain.NewInternalError("failed to save session", err)
	}
	return nil
}

// Load returns the session for id, or a SESSION_EXPIRED error when there is none.
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.NewSessionExpiredError()
	}
	raw, err := s.cache.Get(ctx, recordKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.NewSessionExpiredError()
		}
		return nil, domain.NewInternalError("failed to load session", err)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, domain.NewInternalError("failed to decode session", err)
	}
	return &sess, nil
}

// Refresh pushes the record's expiry out to ttl from now.
func (s *Store) Refresh(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.cache.Expire(ctx, recordKey(id), ttl); err != nil {
		return domain.NewInternalError("failed to refresh session", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, recordKey(id)); err != nil {
		return domain.NewInternalError("failed to delete session", err)
	}
	return nil
}
