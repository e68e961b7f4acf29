package handler_test

import (
	"context"
	"io"
	"net/url"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/domain"
	"campus-portal/internal/service"
	"campus-portal/internal/session"
	"campus-portal/internal/table"
	"campus-portal/internal/upload"
)

// --- Manual Mocks ---

type MockAuthService struct {
	LoginFunc  func(ctx context.Context, creds domain.Credentials) (*service.LoginOutcome, error)
	LogoutFunc func(ctx context.Context, sessionID string) error
	ExtendFunc func(ctx context.Context, sessionID string) (session.Status, error)
}

func (m *MockAuthService) Login(ctx context.Context, creds domain.Credentials) (*service.LoginOutcome, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	panic("MockAuthService.LoginFunc not implemented")
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	panic("MockAuthService.LogoutFunc not implemented")
}

func (m *MockAuthService) Resolve(ctx context.Context, sessionID string, touch bool) (*domain.Session, session.Status, error) {
	panic("MockAuthService.Resolve not implemented")
}

func (m *MockAuthService) Extend(ctx context.Context, sessionID string) (session.Status, error) {
	if m.ExtendFunc != nil {
		return m.ExtendFunc(ctx, sessionID)
	}
	panic("MockAuthService.ExtendFunc not implemented")
}

func (m *MockAuthService) Expire(sessionID string) {}

type MockNotificationService struct {
	DrainFunc func(ctx context.Context, sessionID string) ([]domain.Notification, error)
}

func (m *MockNotificationService) Notify(ctx context.Context, n domain.Notification)          {}
func (m *MockNotificationService) Push(ctx context.Context, id string, n domain.Notification) {}
func (m *MockNotificationService) Clear(ctx context.Context, sessionID string)                {}
func (m *MockNotificationService) Drain(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	if m.DrainFunc != nil {
		return m.DrainFunc(ctx, sessionID)
	}
	panic("MockNotificationService.DrainFunc not implemented")
}

type MockGradingService struct {
	UploadAnswersFunc  func(ctx context.Context, examID int64, fileName string, file service.AnswerFile, size int64) (string, error)
	UploadStatusFunc   func(ctx context.Context, uploadID string) (upload.Status, error)
	AbortUploadFunc    func(ctx context.Context, uploadID string) error
	GradeFunc          func(ctx context.Context, examID int64) (*domain.GradingJob, error)
	ResultsFunc        func(ctx context.Context, examID int64) ([]domain.ExamResult, error)
	OverrideResultFunc func(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error)
	PublishFunc        func(ctx context.Context, examID int64) error
	StudentResultsFunc func(ctx context.Context, studentID int64) ([]domain.ExamResult, error)
}

func (m *MockGradingService) UploadAnswers(ctx context.Context, examID int64, fileName string, file service.AnswerFile, size int64) (string, error) {
	if m.UploadAnswersFunc != nil {
		return m.UploadAnswersFunc(ctx, examID, fileName, file, size)
	}
	panic("MockGradingService.UploadAnswersFunc not implemented")
}

func (m *MockGradingService) UploadStatus(ctx context.Context, uploadID string) (upload.Status, error) {
	if m.UploadStatusFunc != nil {
		return m.UploadStatusFunc(ctx, uploadID)
	}
	panic("MockGradingService.UploadStatusFunc not implemented")
}

func (m *MockGradingService) AbortUpload(ctx context.Context, uploadID string) error {
	if m.AbortUploadFunc != nil {
		return m.AbortUploadFunc(ctx, uploadID)
	}
	panic("MockGradingService.AbortUploadFunc not implemented")
}

func (m *MockGradingService) Grade(ctx context.Context, examID int64) (*domain.GradingJob, error) {
	if m.GradeFunc != nil {
		return m.GradeFunc(ctx, examID)
	}
	panic("MockGradingService.GradeFunc not implemented")
}

func (m *MockGradingService) Results(ctx context.Context, examID int64) ([]domain.ExamResult, error) {
	if m.ResultsFunc != nil {
		return m.ResultsFunc(ctx, examID)
	}
	panic("MockGradingService.ResultsFunc not implemented")
}

func (m *MockGradingService) OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error) {
	if m.OverrideResultFunc != nil {
		return m.OverrideResultFunc(ctx, examID, studentID, o)
	}
	panic("MockGradingService.OverrideResultFunc not implemented")
}

func (m *MockGradingService) Publish(ctx context.Context, examID int64) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, examID)
	}
	panic("MockGradingService.PublishFunc not implemented")
}

func (m *MockGradingService) StudentResults(ctx context.Context, studentID int64) ([]domain.ExamResult, error) {
	if m.StudentResultsFunc != nil {
		return m.StudentResultsFunc(ctx, studentID)
	}
	panic("MockGradingService.StudentResultsFunc not implemented")
}

func (m *MockGradingService) Wait() {}

type MockTransferService struct {
	ImportFunc func(ctx context.Context, resourceName string, r io.Reader) (*service.ImportReport, error)
	ExportFunc func(ctx context.Context, resourceName string, w io.Writer) error
}

func (m *MockTransferService) Import(ctx context.Context, resourceName string, r io.Reader) (*service.ImportReport, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, resourceName, r)
	}
	panic("MockTransferService.ImportFunc not implemented")
}

func (m *MockTransferService) Export(ctx context.Context, resourceName string, w io.Writer) error {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, resourceName, w)
	}
	panic("MockTransferService.ExportFunc not implemented")
}

type MockDashboardService struct {
	GetFunc func(ctx context.Context) (*service.Dashboard, error)
}

func (m *MockDashboardService) Get(ctx context.Context) (*service.Dashboard, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	panic("MockDashboardService.GetFunc not implemented")
}

type MockAuditService struct {
	ListFunc func(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error)
}

func (m *MockAuditService) Record(ctx context.Context, action, resource, resourceID, detail string) {}

func (m *MockAuditService) List(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, page, limit)
	}
	panic("MockAuditService.ListFunc not implemented")
}

// fakeDepartments is an in-memory department backend.
type fakeDepartments struct {
	items   []domain.Department
	created []domain.DepartmentInput
	deleted []int64
	err     error
}

func (f *fakeDepartments) Name() string { return "departments" }

func (f *fakeDepartments) List(ctx context.Context, query url.Values, opts ...apiclient.RequestOption) ([]domain.Department, error) {
	return f.items, f.err
}

func (f *fakeDepartments) Get(ctx context.Context, id int64, opts ...apiclient.RequestOption) (*domain.Department, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.items {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, domain.NewNotFoundError("Department not found")
}

func (f *fakeDepartments) Create(ctx context.Context, in domain.DepartmentInput, opts ...apiclient.RequestOption) (*domain.Department, error) {
	f.created = append(f.created, in)
	return &domain.Department{ID: int64(len(f.items) + 1), Code: in.Code, Name: in.Name}, f.err
}

func (f *fakeDepartments) Update(ctx context.Context, id int64, in domain.DepartmentInput, opts ...apiclient.RequestOption) (*domain.Department, error) {
	return &domain.Department{ID: id, Code: in.Code, Name: in.Name}, f.err
}

func (f *fakeDepartments) Delete(ctx context.Context, id int64, opts ...apiclient.RequestOption) error {
	f.deleted = append(f.deleted, id)
	return f.err
}
