package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-portal/internal/authz"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"
	"campus-portal/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

var cookieCfg = config.SessionConfig{CookieName: "portal_session", RoleCookieName: "role"}

// ManualMockAuthService implements service.AuthService for middleware tests.
type ManualMockAuthService struct {
	ResolveFunc func(ctx context.Context, sessionID string, touch bool) (*domain.Session, session.Status, error)
}

func (m *ManualMockAuthService) Login(ctx context.Context, creds domain.Credentials) (*service.LoginOutcome, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) Logout(ctx context.Context, sessionID string) error {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) Resolve(ctx context.Context, sessionID string, touch bool) (*domain.Session, session.Status, error) {
	return m.ResolveFunc(ctx, sessionID, touch)
}

func (m *ManualMockAuthService) Extend(ctx context.Context, sessionID string) (session.Status, error) {
	panic("not implemented in mock")
}

func (m *ManualMockAuthService) Expire(sessionID string) {}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(cookieCfg)})
}

func decode(t *testing.T, resp *http.Response) middleware.ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.NewNotFoundError("missing"), http.StatusNotFound, "NOT_FOUND"},
		{"bad request", domain.NewError(domain.CodeBadRequest, "bad", nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"unauthorized", domain.NewUnauthorizedError("no"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", domain.NewForbiddenError("no"), http.StatusForbidden, "FORBIDDEN"},
		{"unprocessable", domain.NewError(domain.CodeUnprocessable, "x", nil), http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"network", domain.NewError(domain.CodeNetwork, "x", nil), http.StatusBadGateway, "NETWORK_ERROR"},
		{"unavailable", domain.NewError(domain.CodeServiceUnavailable, "x", nil), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unsupported file", domain.NewUnsupportedFileError("a.pdf", ".zip"), http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE"},
		{"fiber", fiber.NewError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/x", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.status, middleware.StatusFor(tt.err))
		})
	}
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newApp()
	app.Post("/x", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{domain.NewMissingFieldError("email")}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "email", body.Errors[0].Field)
	assert.Equal(t, "this field is required", body.Errors[0].Message)
}

func TestErrorHandler_SessionExpiredRedirectsToLogin(t *testing.T) {
	app := newApp()
	app.Get("/x", func(c *fiber.Ctx) error { return domain.NewSessionExpiredError() })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	cleared := map[string]bool{}
	for _, ck := range resp.Cookies() {
		if ck.Value == "" {
			cleared[ck.Name] = true
		}
	}
	assert.True(t, cleared["portal_session"])
	assert.True(t, cleared["role"])
}

func sessionApp(auth service.AuthService, a *authz.Authorizer) *fiber.App {
	app := newApp()
	app.Use(middleware.Session(auth, cookieCfg, middleware.PassivePaths...))
	app.Use(middleware.Authorize(a, cookieCfg))
	handler := func(c *fiber.Ctx) error {
		sess, ok := domain.SessionFromContext(c.UserContext())
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(sess.UserID)
	}
	app.Get("/health", handler)
	app.Get("/api/session", handler)
	app.Get("/api/courses", handler)
	app.Post("/api/courses", handler)
	return app
}

func request(method, path, sid, role string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	var cookies []string
	if sid != "" {
		cookies = append(cookies, "portal_session="+sid)
	}
	if role != "" {
		cookies = append(cookies, "role="+role)
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}
	return req
}

func activeSession(role domain.Role) (*domain.Session, *ManualMockAuthService, *[]bool) {
	sess := &domain.Session{ID: "s1", UserID: "7", Role: role}
	var touches []bool
	auth := &ManualMockAuthService{ResolveFunc: func(ctx context.Context, id string, touch bool) (*domain.Session, session.Status, error) {
		touches = append(touches, touch)
		if id != sess.ID {
			return nil, session.Status{State: session.StateExpired}, domain.NewSessionExpiredError()
		}
		return sess, session.Status{State: session.StateActive, Remaining: 90 * time.Second}, nil
	}}
	return sess, auth, &touches
}

func roleCookie(t *testing.T, sess *domain.Session) string {
	t.Helper()
	v, err := authz.SignRoleCookie([]byte(secret), sess.UserID, sess.ID, sess.Role, time.Hour, time.Now())
	require.NoError(t, err)
	return v
}

func TestSessionAndAuthorize(t *testing.T) {
	sess, auth, touches := activeSession(domain.RoleProfessor)
	app := sessionApp(auth, authz.NewAuthorizer(secret))
	cookie := roleCookie(t, sess)

	t.Run("public path needs nothing", func(t *testing.T) {
		resp, err := app.Test(request(http.MethodGet, "/health", "", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing session cookie", func(t *testing.T) {
		resp, err := app.Test(request(http.MethodGet, "/api/courses", "", cookie))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired session", func(t *testing.T) {
		resp, err := app.Test(request(http.MethodGet, "/api/courses", "gone", cookie))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "SESSION_EXPIRED", decode(t, resp).Code)
		assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	})

	t.Run("allowed read", func(t *testing.T) {
		*touches = nil
		resp, err := app.Test(request(http.MethodGet, "/api/courses", "s1", cookie))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "7", string(body))
		assert.Equal(t, "active", resp.Header.Get(middleware.HeaderSessionState))
		assert.Equal(t, "90", resp.Header.Get(middleware.HeaderSessionRemaining))
		assert.Equal(t, []bool{true}, *touches)
	})

	t.Run("status polling is not activity", func(t *testing.T) {
		*touches = nil
		resp, err := app.Test(request(http.MethodGet, "/api/session", "s1", cookie))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []bool{false}, *touches)
	})

	t.Run("write outside permissions", func(t *testing.T) {
		resp, err := app.Test(request(http.MethodPost, "/api/courses", "s1", cookie))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "forbidden", decode(t, resp).Details["reason"])
	})

	t.Run("tampered role cookie", func(t *testing.T) {
		resp, err := app.Test(request(http.MethodGet, "/api/courses", "s1", cookie+"x"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("role cookie of another session", func(t *testing.T) {
		other := roleCookie(t, &domain.Session{ID: "s2", UserID: "7", Role: domain.RoleAdmin})
		resp, err := app.Test(request(http.MethodPost, "/api/courses", "s1", other))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestValidateID(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := newApp()
	app.Get("/exams/:id/results/:studentId", vm.ValidateID("id", "studentId"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": middleware.IDParam(c, "id"), "student": middleware.IDParam(c, "studentId")})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/exams/7/results/5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(7), got["id"])
	assert.Equal(t, int64(5), got["student"])

	for _, path := range []string{"/exams/abc/results/5", "/exams/0/results/5", "/exams/7/results/-1"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestValidateListQuery(t *testing.T) {
	vm := middleware.NewValidationMiddleware()
	app := newApp()
	app.Get("/list", vm.ValidateListQuery(), func(c *fiber.Ctx) error {
		return c.JSON(middleware.ListQueryFrom(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list?sort_by=name&sort_order=DESC&page=2&limit=5&status=grading", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var q service.ListQuery
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	assert.Equal(t, "name", q.Sort.Key)
	assert.Equal(t, "desc", string(q.Sort.Direction))
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, "grading", q.Filters.Get("status"))
	assert.Empty(t, q.Filters.Get("page"))

	for _, query := range []string{"page=0", "page=x", "limit=1000", "sort_by=name&sort_order=sideways"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list?"+query, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}
