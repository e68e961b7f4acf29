package domain

import (
	"context"
	"time"
)

// AuditEntry records one mutation performed through the portal.
type AuditEntry struct {
	ID         string
	ActorID    string
	ActorRole  Role
	Action     string
	Resource   string
	ResourceID string
	Detail     string
	CreatedAt  time.Time
}

// Audit actions.
const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditDelete  = "delete"
	AuditImport  = "import"
	AuditUpload  = "upload"
	AuditGrade   = "grade"
	AuditPublish = "publish"
	AuditLogin   = "login"
	AuditLogout  = "logout"
)

// AuditRepository persists audit entries.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]AuditEntry, error)
	Count(ctx context.Context) (int, error)
}
