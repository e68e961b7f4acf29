package models

import (
	"database/sql"
	"time"
)

// AuditLog is a row of PORTAL_AUDIT_LOG.
type AuditLog struct {
	ID           string         `db:"ID"`
	ActorID      string         `db:"ACTOR_ID"`
	ActorRole    string         `db:"ACTOR_ROLE"`
	Action       string         `db:"ACTION"`
	ResourceName string         `db:"RESOURCE_NAME"`
	ResourceID   sql.NullString `db:"RESOURCE_ID"`
	Detail       sql.NullString `db:"DETAIL"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
}
