package repository

import (
	"context"
	"fmt"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/repository/models"
	"campus-portal/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAuditRepository implements domain.AuditRepository using sqlx.
type sqlxAuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of sqlxAuditRepository.
func NewAuditRepository(db *sqlx.DB) domain.AuditRepository {
	return &sqlxAuditRepository{db: db}
}

func (r *sqlxAuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = util.NewULID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO PORTAL_AUDIT_LOG (ID, ACTOR_ID, ACTOR_ROLE, ACTION, RESOURCE_NAME, RESOURCE_ID, DETAIL, CREATED_AT)
	          VALUES (:ID, :ACTOR_ID, :ACTOR_ROLE, :ACTION, :RESOURCE_NAME, :RESOURCE_ID, :DETAIL, :CREATED_AT)`

	if _, err := r.db.NamedExecContext(ctx, query, toModelAudit(entry)); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (r *sqlxAuditRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	query := `SELECT ID, ACTOR_ID, ACTOR_ROLE, ACTION, RESOURCE_NAME, RESOURCE_ID, DETAIL, CREATED_AT
	          FROM PORTAL_AUDIT_LOG
	          ORDER BY CREATED_AT DESC, ID DESC
	          OFFSET :offset ROWS FETCH NEXT :limit ROWS ONLY`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for audit list: %w", err)
	}
	defer stmt.Close()

	var rows []models.AuditLog
	args := map[string]interface{}{"offset": offset, "limit": limit}
	if err := stmt.SelectContext(ctx, &rows, args); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, toDomainAudit(&rows[i]))
	}
	return entries, nil
}

func (r *sqlxAuditRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM PORTAL_AUDIT_LOG`); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

func toModelAudit(e *domain.AuditEntry) *models.AuditLog {
	return &models.AuditLog{
		ID:           e.ID,
		ActorID:      e.ActorID,
		ActorRole:    e.ActorRole.String(),
		Action:       e.Action,
		ResourceName: e.Resource,
		ResourceID:   util.StringToNullString(e.ResourceID),
		Detail:       util.StringToNullString(e.Detail),
		CreatedAt:    e.CreatedAt,
	}
}

func toDomainAudit(m *models.AuditLog) domain.AuditEntry {
	return domain.AuditEntry{
		ID:         m.ID,
		ActorID:    m.ActorID,
		ActorRole:  domain.Role(m.ActorRole),
		Action:     m.Action,
		Resource:   m.ResourceName,
		ResourceID: m.ResourceID.String,
		Detail:     m.Detail.String,
		CreatedAt:  m.CreatedAt,
	}
}
