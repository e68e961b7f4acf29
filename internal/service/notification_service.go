package service

import (
	"context"
	"encoding/json"
	"time"

	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"

	"go.uber.org/zap"
)

const (
	notificationTTL   = time.Hour
	maxNotifications  = 50
	notificationQueue = "queue"
)

// NotificationService is the per-session toast queue. It implements
// domain.Notifier so the backend client can publish into it.
type NotificationService interface {
	domain.Notifier
	Push(ctx context.Context, sessionID string, n domain.Notification)
	Drain(ctx context.Context, sessionID string) ([]domain.Notification, error)
	Clear(ctx context.Context, sessionID string)
}

type notificationServiceImpl struct {
	cache domain.Cache
	now   func() time.Time
}

func NewNotificationService(c domain.Cache) NotificationService {
	return &notificationServiceImpl{cache: c, now: time.Now}
}

func notificationKey(sessionID string) string {
	return cache.GenerateCacheKey("notification", notificationQueue, sessionID)
}

// Notify queues n for the session in ctx. Without a session it is only logged.
func (s *notificationServiceImpl) Notify(ctx context.Context, n domain.Notification) {
	sess, ok := domain.SessionFromContext(ctx)
	if !ok {
		logger.Get().Debug("Notification without session dropped",
			zap.String("level", string(n.Level)),
			zap.String("message", n.Message))
		return
	}
	s.Push(ctx, sess.ID, n)
}

func (s *notificationServiceImpl) Push(ctx context.Context, sessionID string, n domain.Notification) {
	if n.At.IsZero() {
		n.At = s.now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	key := notificationKey(sessionID)
	if err := s.cache.RPush(ctx, key, string(data)); err != nil {
		logger.Get().Warn("Failed to queue notification", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if err := s.cache.Expire(ctx, key, notificationTTL); err != nil {
		logger.Get().Warn("Failed to set notification expiry", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Drain removes and returns the queued notifications, oldest first.
func (s *notificationServiceImpl) Drain(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	raw, err := s.cache.LPopCount(ctx, notificationKey(sessionID), maxNotifications)
	if err != nil {
		return nil, domain.NewInternalError("failed to read notifications", err)
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, r := range raw {
		var n domain.Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			logger.Get().Warn("Dropping undecodable notification", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *notificationServiceImpl) Clear(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, notificationKey(sessionID)); err != nil {
		logger.Get().Warn("Failed to clear notifications", zap.String("session_id", sessionID), zap.Error(err))
	}
}
