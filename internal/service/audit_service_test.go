package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"campus-portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Record(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)
	fixed := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc.(*auditServiceImpl).now = func() time.Time { return fixed }

	repo.On("Record", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.ID != "" &&
			e.ActorID == "9" &&
			e.ActorRole == domain.RoleProfessor &&
			e.Action == domain.AuditPublish &&
			e.Resource == "exams" &&
			e.ResourceID == "3" &&
			e.CreatedAt.Equal(fixed)
	})).Return(nil)

	svc.Record(sessionCtx(domain.RoleProfessor, "9"), domain.AuditPublish, "exams", "3", "")

	repo.AssertExpectations(t)
}

func TestAuditService_Record_RepositoryErrorIsSwallowed(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)
	repo.On("Record", mock.Anything, mock.Anything).Return(errors.New("ORA-12541"))

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), domain.AuditDelete, "students", "1", "")
	})
	repo.AssertExpectations(t)
}

func TestAuditService_List(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)
	entries := []domain.AuditEntry{{ID: "a"}, {ID: "b"}}
	repo.On("Count", mock.Anything).Return(45, nil)
	repo.On("List", mock.Anything, 20, 20).Return(entries, nil)

	page, err := svc.List(context.Background(), 2, 20)

	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, entries, page.Items)
}

func TestAuditService_List_PastLastPage(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)
	repo.On("Count", mock.Anything).Return(45, nil)

	for _, page := range []int{4, math.MaxInt64} {
		p, err := svc.List(context.Background(), page, 20)

		require.NoError(t, err)
		assert.Empty(t, p.Items)
		assert.Equal(t, 45, p.Total)
		assert.Equal(t, 3, p.TotalPages)
	}
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditService_List_WithoutRepository(t *testing.T) {
	svc := NewAuditService(nil)

	page, err := svc.List(context.Background(), 1, 10)

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
}
