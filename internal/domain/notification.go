package domain

import (
	"context"
	"time"
)

// NotificationLevel mirrors the toast variants shown by the front-end.
type NotificationLevel string

const (
	LevelError   NotificationLevel = "error"
	LevelWarning NotificationLevel = "warning"
	LevelSuccess NotificationLevel = "success"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a user-facing message queued for a session.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Code    ErrorCode         `json:"code,omitempty"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// Notifier publishes notifications for the session found in ctx.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }
