package service

import (
	"context"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/table"
	"campus-portal/internal/util"

	"go.uber.org/zap"
)

// AuditService records portal mutations. Recording never fails the mutation
// that triggered it.
type AuditService interface {
	Record(ctx context.Context, action, resource, resourceID, detail string)
	List(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error)
}

type auditServiceImpl struct {
	repo domain.AuditRepository
	now  func() time.Time
}

// NewAuditService returns an AuditService. A nil repo logs entries only.
func NewAuditService(repo domain.AuditRepository) AuditService {
	return &auditServiceImpl{repo: repo, now: time.Now}
}

func (s *auditServiceImpl) Record(ctx context.Context, action, resource, resourceID, detail string) {
	entry := &domain.AuditEntry{
		ID:         util.NewULID(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	}
	if sess, ok := domain.SessionFromContext(ctx); ok {
		entry.ActorID = sess.UserID
		entry.ActorRole = sess.Role
	}

	log := logger.Get()
	log.Info("Audit",
		zap.String("actor_id", entry.ActorID),
		zap.String("actor_role", entry.ActorRole.String()),
		zap.String("action", action),
		zap.String("resource", resource),
		zap.String("resource_id", resourceID))

	if s.repo == nil {
		return
	}
	if err := s.repo.Record(ctx, entry); err != nil {
		log.Error("Failed to persist audit entry", zap.String("audit_id", entry.ID), zap.Error(err))
	}
}

func (s *auditServiceImpl) List(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error) {
	empty := table.Paginate([]domain.AuditEntry{}, page, limit)
	if s.repo == nil {
		return empty, nil
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return empty, domain.NewInternalError("failed to count audit entries", err)
	}
	p := empty
	p.Total = total
	p.TotalPages = (total + p.Limit - 1) / p.Limit
	if p.Page-1 >= p.TotalPages {
		return p, nil
	}
	entries, err := s.repo.List(ctx, p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		return empty, domain.NewInternalError("failed to list audit entries", err)
	}
	p.Items = entries
	return p, nil
}
