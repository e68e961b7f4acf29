package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"campus-portal/internal/cache/cachetest"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/dto"
	"campus-portal/internal/handler"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"
	"campus-portal/internal/session"
	"campus-portal/internal/table"
	"campus-portal/internal/transfer"
	"campus-portal/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = &config.Config{
	JWT:     config.JWTConfig{RoleCookieTTL: time.Hour},
	Session: config.SessionConfig{CookieName: "portal_session", RoleCookieName: "role"},
}

var professor = &domain.Session{ID: "sess-1", UserID: "7", Name: "Ada Lovelace", Role: domain.RoleProfessor}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testConfig.Session)})
}

// withSession stands in for middleware.Session.
func withSession(s *domain.Session, st session.Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.SessionKey, s)
		c.Locals(middleware.SessionStatusKey, st)
		c.SetUserContext(domain.WithSession(c.UserContext(), s))
		return c.Next()
	}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success sets both cookies", func(t *testing.T) {
		auth := &MockAuthService{
			LoginFunc: func(ctx context.Context, creds domain.Credentials) (*service.LoginOutcome, error) {
				assert.Equal(t, "ada", creds.Username)
				return &service.LoginOutcome{
					Session:    professor,
					RoleCookie: "signed.role.cookie",
					Status:     session.Status{State: session.StateActive, Role: domain.RoleProfessor, Remaining: 45 * time.Minute},
				}, nil
			},
		}
		app := newApp()
		app.Post("/api/auth/login", handler.NewAuthHandler(auth, testConfig).Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: "ada", Password: "secret"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		sc := cookieNamed(resp, "portal_session")
		require.NotNil(t, sc)
		assert.Equal(t, "sess-1", sc.Value)
		assert.True(t, sc.HttpOnly)
		rc := cookieNamed(resp, "role")
		require.NotNil(t, rc)
		assert.Equal(t, "signed.role.cookie", rc.Value)

		var body dto.LoginResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, domain.RoleProfessor, body.User.Role)
		assert.Equal(t, 2700, body.Session.RemainingSeconds)
	})

	t.Run("Missing password is a validation error", func(t *testing.T) {
		app := newApp()
		app.Post("/api/auth/login", handler.NewAuthHandler(&MockAuthService{}, testConfig).Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body middleware.ValidationErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, string(domain.CodeValidation), body.Code)
		require.NotEmpty(t, body.Errors)
		assert.Equal(t, "password", body.Errors[0].Field)
	})

	t.Run("Rejected credentials are 401", func(t *testing.T) {
		auth := &MockAuthService{
			LoginFunc: func(ctx context.Context, creds domain.Credentials) (*service.LoginOutcome, error) {
				return nil, domain.NewUnauthorizedError("Invalid username or password")
			},
		}
		app := newApp()
		app.Post("/api/auth/login", handler.NewAuthHandler(auth, testConfig).Login)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", dto.LoginRequest{Username: "ada", Password: "nope"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, cookieNamed(resp, "portal_session"))
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("Clears cookies even when logout fails", func(t *testing.T) {
		auth := &MockAuthService{
			LogoutFunc: func(ctx context.Context, sessionID string) error {
				assert.Equal(t, "sess-1", sessionID)
				return errors.New("redis down")
			},
		}
		app := newApp()
		app.Post("/api/auth/logout", withSession(professor, session.Status{}), handler.NewAuthHandler(auth, testConfig).Logout)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/logout", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		sc := cookieNamed(resp, "portal_session")
		require.NotNil(t, sc)
		assert.Empty(t, sc.Value)
	})

	t.Run("Without a session", func(t *testing.T) {
		app := newApp()
		app.Post("/api/auth/logout", handler.NewAuthHandler(&MockAuthService{}, testConfig).Logout)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/logout", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSessionHandler(t *testing.T) {
	warning := session.Status{State: session.StateWarning, Role: domain.RoleProfessor, Remaining: 30 * time.Second}

	t.Run("Status reports the countdown", func(t *testing.T) {
		h := handler.NewSessionHandler(&MockAuthService{}, &MockNotificationService{})
		app := newApp()
		app.Get("/api/session", withSession(professor, warning), h.Status)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/session", nil))
		require.NoError(t, err)
		var body dto.SessionResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, session.StateWarning, body.State)
		assert.Equal(t, 30, body.RemainingSeconds)
	})

	t.Run("Extend restarts the countdown", func(t *testing.T) {
		auth := &MockAuthService{
			ExtendFunc: func(ctx context.Context, sessionID string) (session.Status, error) {
				return session.Status{State: session.StateActive, Remaining: 45 * time.Minute}, nil
			},
		}
		h := handler.NewSessionHandler(auth, &MockNotificationService{})
		app := newApp()
		app.Post("/api/session/extend", withSession(professor, warning), h.Extend)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/session/extend", nil))
		require.NoError(t, err)
		var body dto.SessionResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, session.StateActive, body.State)
	})

	t.Run("Extend after expiry", func(t *testing.T) {
		auth := &MockAuthService{
			ExtendFunc: func(ctx context.Context, sessionID string) (session.Status, error) {
				return session.Status{}, domain.NewSessionExpiredError()
			},
		}
		h := handler.NewSessionHandler(auth, &MockNotificationService{})
		app := newApp()
		app.Post("/api/session/extend", withSession(professor, warning), h.Extend)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/session/extend", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, middleware.LoginPath, resp.Header.Get(fiber.HeaderLocation))
	})

	t.Run("Navigation follows the role", func(t *testing.T) {
		h := handler.NewSessionHandler(&MockAuthService{}, &MockNotificationService{})
		app := newApp()
		app.Get("/api/navigation", withSession(professor, warning), h.Navigation)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/navigation", nil))
		require.NoError(t, err)
		var body dto.NavigationResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, domain.RoleProfessor, body.Role)
		for _, item := range body.Items {
			assert.False(t, strings.HasPrefix(item.Path, "/admin"), item.Path)
		}
	})

	t.Run("Notifications drain the queue", func(t *testing.T) {
		notes := &MockNotificationService{
			DrainFunc: func(ctx context.Context, sessionID string) ([]domain.Notification, error) {
				return []domain.Notification{{Level: domain.LevelSuccess, Message: "Upload complete"}}, nil
			},
		}
		h := handler.NewSessionHandler(&MockAuthService{}, notes)
		app := newApp()
		app.Get("/api/notifications", withSession(professor, warning), h.Notifications)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
		require.NoError(t, err)
		var body dto.NotificationsResponse
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "Upload complete", body.Items[0].Message)
	})
}

func newDepartmentsApp(backend *fakeDepartments) *fiber.App {
	catalog := service.NewCatalog[domain.Department, domain.DepartmentInput](backend, nil, service.NewAuditService(nil), table.Columns[domain.Department]{
		"id":   func(d domain.Department) interface{} { return d.ID },
		"name": func(d domain.Department) interface{} { return d.Name },
	}, func(d domain.Department) int64 { return d.ID })

	app := newApp()
	handler.RegisterCatalog(app.Group("/api"), middleware.NewValidationMiddleware(), catalog)
	return app
}

func TestCatalogHandler(t *testing.T) {
	items := []domain.Department{
		{ID: 1, Code: "PHY", Name: "physics"},
		{ID: 2, Code: "CS", Name: "Computer Science"},
		{ID: 3, Code: "BIO", Name: "Biology"},
	}

	t.Run("List sorts and pages", func(t *testing.T) {
		app := newDepartmentsApp(&fakeDepartments{items: items})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/departments?sort_by=name&sort_order=desc&limit=2", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.ListResponse[domain.Department]
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 2)
		assert.Equal(t, "physics", body.Items[0].Name)
		assert.Equal(t, "Computer Science", body.Items[1].Name)
		assert.Equal(t, 3, body.PaginationInfo.TotalItems)
		assert.Equal(t, 2, body.PaginationInfo.TotalPages)
		assert.Equal(t, "desc", body.PaginationInfo.SortOrder)
	})

	t.Run("Page far past the end is empty", func(t *testing.T) {
		app := newDepartmentsApp(&fakeDepartments{items: items})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/departments?page=9223372036854775807", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body dto.ListResponse[domain.Department]
		decodeBody(t, resp, &body)
		assert.Empty(t, body.Items)
		assert.Equal(t, 3, body.PaginationInfo.TotalItems)
	})

	t.Run("Unknown sort key", func(t *testing.T) {
		app := newDepartmentsApp(&fakeDepartments{items: items})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/departments?sort_by=budget", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Get rejects a non-numeric id", func(t *testing.T) {
		app := newDepartmentsApp(&fakeDepartments{items: items})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/departments/abc", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Get missing entity", func(t *testing.T) {
		app := newDepartmentsApp(&fakeDepartments{items: items})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/departments/99", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("Create validates before the backend is called", func(t *testing.T) {
		backend := &fakeDepartments{items: items}
		app := newDepartmentsApp(backend)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/departments", domain.DepartmentInput{Code: "M A", Name: "Mathematics"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, backend.created)
	})

	t.Run("Create", func(t *testing.T) {
		backend := &fakeDepartments{items: items}
		app := newDepartmentsApp(backend)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/departments", domain.DepartmentInput{Code: "MATH", Name: "Mathematics"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		require.Len(t, backend.created, 1)
		assert.Equal(t, "MATH", backend.created[0].Code)
	})

	t.Run("Delete", func(t *testing.T) {
		backend := &fakeDepartments{items: items}
		app := newDepartmentsApp(backend)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/departments/2", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, []int64{2}, backend.deleted)
	})
}

func multipartBody(t *testing.T, field, name string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestTransferHandler(t *testing.T) {
	t.Run("Export is an attachment", func(t *testing.T) {
		transfers := &MockTransferService{
			ExportFunc: func(ctx context.Context, resourceName string, w io.Writer) error {
				assert.Equal(t, "students", resourceName)
				_, err := w.Write([]byte("xlsx"))
				return err
			},
		}
		app := newApp()
		handler.RegisterTransfer(app.Group("/api"), handler.NewTransferHandler(transfers))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/students/export", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, transfer.ContentType, resp.Header.Get(fiber.HeaderContentType))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "students-")
	})

	t.Run("Import returns the report", func(t *testing.T) {
		transfers := &MockTransferService{
			ImportFunc: func(ctx context.Context, resourceName string, r io.Reader) (*service.ImportReport, error) {
				content, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, "sheet", string(content))
				return &service.ImportReport{Resource: resourceName, Created: 4, Failed: 1}, nil
			},
		}
		app := newApp()
		handler.RegisterTransfer(app.Group("/api"), handler.NewTransferHandler(transfers))

		body, ct := multipartBody(t, "file", "courses.xlsx", []byte("sheet"))
		req := httptest.NewRequest(http.MethodPost, "/api/courses/import", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		var report service.ImportReport
		decodeBody(t, resp, &report)
		assert.Equal(t, "courses", report.Resource)
		assert.Equal(t, 4, report.Created)
	})

	t.Run("Import without a file", func(t *testing.T) {
		app := newApp()
		handler.RegisterTransfer(app.Group("/api"), handler.NewTransferHandler(&MockTransferService{}))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/professors/import", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestGradingHandler_UploadAnswers(t *testing.T) {
	dir := t.TempDir()
	var spooled string
	grading := &MockGradingService{
		UploadAnswersFunc: func(ctx context.Context, examID int64, fileName string, file service.AnswerFile, size int64) (string, error) {
			assert.Equal(t, int64(12), examID)
			assert.Equal(t, "answers.zip", fileName)
			assert.Equal(t, int64(7), size)

			buf := make([]byte, size)
			_, err := file.ReadAt(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, "PK-data", string(buf))

			f, ok := file.(interface{ Name() string })
			require.True(t, ok)
			spooled = f.Name()
			require.NoError(t, file.Close())
			return "01UPLOAD", nil
		},
	}
	app := newApp()
	handler.RegisterGrading(app.Group("/api"), middleware.NewValidationMiddleware(), handler.NewGradingHandler(grading, dir))

	body, ct := multipartBody(t, "file", "answers.zip", []byte("PK-data"))
	req := httptest.NewRequest(http.MethodPost, "/api/exams/12/answers", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var accepted dto.UploadAcceptedResponse
	decodeBody(t, resp, &accepted)
	assert.Equal(t, "01UPLOAD", accepted.UploadID)
	assert.Equal(t, "/api/uploads/01UPLOAD", accepted.StatusURL)

	_, statErr := os.Stat(spooled)
	assert.True(t, os.IsNotExist(statErr), "spooled file should be removed on Close")
}

func TestGradingHandler_Routes(t *testing.T) {
	grading := &MockGradingService{
		UploadStatusFunc: func(ctx context.Context, uploadID string) (upload.Status, error) {
			return upload.Status{ID: uploadID, Percent: 40, State: upload.StateRunning}, nil
		},
		AbortUploadFunc: func(ctx context.Context, uploadID string) error {
			if uploadID == "done" {
				return domain.NewInvalidInputError("upload is not running")
			}
			return nil
		},
		OverrideResultFunc: func(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error) {
			return &domain.ExamResult{ExamID: examID, StudentID: studentID, Score: o.Score}, nil
		},
		StudentResultsFunc: func(ctx context.Context, studentID int64) ([]domain.ExamResult, error) {
			return nil, domain.NewForbiddenError("You can only view your own results.")
		},
		PublishFunc: func(ctx context.Context, examID int64) error { return nil },
	}
	app := newApp()
	handler.RegisterGrading(app.Group("/api"), middleware.NewValidationMiddleware(), handler.NewGradingHandler(grading, t.TempDir()))

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"status", httptest.NewRequest(http.MethodGet, "/api/uploads/u1", nil), fiber.StatusOK},
		{"abort", httptest.NewRequest(http.MethodDelete, "/api/uploads/u1", nil), fiber.StatusNoContent},
		{"abort finished", httptest.NewRequest(http.MethodDelete, "/api/uploads/done", nil), fiber.StatusBadRequest},
		{"override", jsonRequest(http.MethodPut, "/api/exams/3/results/9", domain.GradeOverride{Score: 17.5}), fiber.StatusOK},
		{"override bad student id", jsonRequest(http.MethodPut, "/api/exams/3/results/0", domain.GradeOverride{Score: 1}), fiber.StatusBadRequest},
		{"publish", httptest.NewRequest(http.MethodPost, "/api/exams/3/publish", nil), fiber.StatusNoContent},
		{"other student's results", httptest.NewRequest(http.MethodGet, "/api/students/4/results", nil), fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDashboardHandler(t *testing.T) {
	t.Run("Dashboard", func(t *testing.T) {
		dash := &MockDashboardService{
			GetFunc: func(ctx context.Context) (*service.Dashboard, error) {
				return &service.Dashboard{Role: domain.RoleAdmin, Counts: map[string]int{"students": 120}}, nil
			},
		}
		app := newApp()
		app.Get("/api/dashboard", handler.NewDashboardHandler(dash, &MockAuditService{}).Dashboard)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		require.NoError(t, err)
		var body service.Dashboard
		decodeBody(t, resp, &body)
		assert.Equal(t, 120, body.Counts["students"])
	})

	t.Run("Audit uses the validated page", func(t *testing.T) {
		audit := &MockAuditService{
			ListFunc: func(ctx context.Context, page, limit int) (table.Page[domain.AuditEntry], error) {
				assert.Equal(t, 2, page)
				assert.Equal(t, 5, limit)
				return table.Page[domain.AuditEntry]{
					Items: []domain.AuditEntry{{ID: "01A", Action: domain.AuditCreate, Resource: "students"}},
					Total: 6, Page: 2, Limit: 5, TotalPages: 2,
				}, nil
			},
		}
		app := newApp()
		app.Get("/api/audit", middleware.NewValidationMiddleware().ValidateListQuery(), handler.NewDashboardHandler(&MockDashboardService{}, audit).Audit)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/audit?page=2&limit=5", nil))
		require.NoError(t, err)
		var body dto.AuditListResponse
		decodeBody(t, resp, &body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "students", body.Items[0].Resource)
		assert.Equal(t, 6, body.PaginationInfo.TotalItems)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("Healthy without a database", func(t *testing.T) {
		app := newApp()
		app.Get("/health", handler.NewHealthHandler(cachetest.NewMemory(), nil).Health)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		var body dto.HealthResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "ok", body.Status)
		assert.Empty(t, body.Database)
	})

	t.Run("Database down", func(t *testing.T) {
		app := newApp()
		app.Get("/health", handler.NewHealthHandler(cachetest.NewMemory(), func(ctx context.Context) error {
			return errors.New("ORA-12541")
		}).Health)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		var body dto.HealthResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "unreachable", body.Database)
		assert.Equal(t, "ok", body.Redis)
	})
}
