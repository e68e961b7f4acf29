package middleware

import (
	"strconv"
	"strings"

	"campus-portal/internal/authz"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/service"
	"campus-portal/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionKey       = "session"        // *domain.Session in fiber.Ctx locals
	SessionStatusKey = "session_status" // session.Status in fiber.Ctx locals

	HeaderSessionState     = "X-Session-State"
	HeaderSessionRemaining = "X-Session-Remaining"
)

// PassivePaths are polled by the front-end and do not count as user activity.
var PassivePaths = []string{"/api/session", "/api/notifications"}

// Session resolves the session cookie, records activity and makes the session
// available to handlers and to backend calls through the user context.
func Session(auth service.AuthService, cfg config.SessionConfig, passive ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authz.IsPublic(c.Path()) {
			return c.Next()
		}
		sessionID := c.Cookies(cfg.CookieName)
		if sessionID == "" {
			return domain.NewUnauthorizedError("Please log in to continue.")
		}

		touch := !(c.Method() == fiber.MethodGet && isPassive(c.Path(), passive))
		sess, status, err := auth.Resolve(c.UserContext(), sessionID, touch)
		if err != nil {
			return err
		}

		c.Locals(SessionKey, sess)
		c.Locals(SessionStatusKey, status)
		c.SetUserContext(domain.WithSession(c.UserContext(), sess))
		c.Set(HeaderSessionState, string(status.State))
		c.Set(HeaderSessionRemaining, strconv.Itoa(status.RemainingSeconds()))
		return c.Next()
	}
}

func isPassive(path string, passive []string) bool {
	path = strings.TrimRight(path, "/")
	for _, p := range passive {
		if path == p {
			return true
		}
	}
	return false
}

// SessionFrom returns the session resolved by Session.
func SessionFrom(c *fiber.Ctx) (*domain.Session, bool) {
	sess, ok := c.Locals(SessionKey).(*domain.Session)
	return sess, ok && sess != nil
}

// SessionStatusFrom returns the countdown snapshot taken by Session.
func SessionStatusFrom(c *fiber.Ctx) (session.Status, bool) {
	st, ok := c.Locals(SessionStatusKey).(session.Status)
	return st, ok
}
