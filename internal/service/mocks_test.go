package service

import (
	"context"
	"net/url"
	"sync"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/domain"
	"campus-portal/internal/table"
	"campus-portal/internal/upload"

	"github.com/stretchr/testify/mock"
)

// --- MockAuthenticator ---
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

// --- MockAuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, action, resource, resourceID, detail string) {
	m.Called(ctx, action, resource, resourceID, detail)
}

func (m *MockAuditService) List(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).(table.Page[domain.AuditEntry]), args.Error(1)
}

// --- MockAuditRepository ---
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockAuditRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- MockCatalogBackend ---
type MockCatalogBackend[T any, In any] struct {
	mock.Mock
	name string
}

func (m *MockCatalogBackend[T, In]) Name() string { return m.name }

func (m *MockCatalogBackend[T, In]) List(ctx context.Context, query url.Values, opts ...apiclient.RequestOption) ([]T, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockCatalogBackend[T, In]) Get(ctx context.Context, id int64, opts ...apiclient.RequestOption) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCatalogBackend[T, In]) Create(ctx context.Context, in In, opts ...apiclient.RequestOption) (*T, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCatalogBackend[T, In]) Update(ctx context.Context, id int64, in In, opts ...apiclient.RequestOption) (*T, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockCatalogBackend[T, In]) Delete(ctx context.Context, id int64, opts ...apiclient.RequestOption) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- MockGradingBackend ---
type MockGradingBackend struct {
	mock.Mock
	target upload.Target
}

func (m *MockGradingBackend) AnswerTarget(examID int64) upload.Target {
	m.Called(examID)
	return m.target
}

func (m *MockGradingBackend) Grade(ctx context.Context, examID int64) (*domain.GradingJob, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GradingJob), args.Error(1)
}

func (m *MockGradingBackend) Results(ctx context.Context, examID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExamResult), args.Error(1)
}

func (m *MockGradingBackend) OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error) {
	args := m.Called(ctx, examID, studentID, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamResult), args.Error(1)
}

func (m *MockGradingBackend) Publish(ctx context.Context, examID int64) error {
	args := m.Called(ctx, examID)
	return args.Error(0)
}

// --- MockStudentResults ---
type MockStudentResults struct {
	mock.Mock
}

func (m *MockStudentResults) Results(ctx context.Context, studentID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExamResult), args.Error(1)
}

// --- MockProfessorCourses ---
type MockProfessorCourses struct {
	mock.Mock
}

func (m *MockProfessorCourses) Courses(ctx context.Context, professorID int64, opts ...apiclient.RequestOption) ([]domain.Course, error) {
	args := m.Called(ctx, professorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Course), args.Error(1)
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

func sessionCtx(role domain.Role, userID string) context.Context {
	return domain.WithSession(context.Background(), &domain.Session{
		ID:     "sess-" + userID,
		UserID: userID,
		Role:   role,
		Token:  "token-" + userID,
	})
}
