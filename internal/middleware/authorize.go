package middleware

import (
	"campus-portal/internal/authz"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Authorize checks the role cookie against the route permission table. It runs
// after Session, so the cookie must also belong to the resolved session.
func Authorize(a *authz.Authorizer, cfg config.SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authz.IsPublic(c.Path()) {
			return c.Next()
		}
		d := a.Check(c.Cookies(cfg.RoleCookieName), c.Method(), c.Path())
		log := logger.Get().With(
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("role", d.Role.String()),
		)

		if d.Reason == authz.ReasonUnauthenticated {
			log.Info("Route denied: missing or invalid role cookie")
			return domain.NewUnauthorizedError("Please log in to continue.")
		}
		if sess, ok := SessionFrom(c); ok && (sess.ID != d.SessionID || sess.Role != d.Role) {
			log.Warn("Route denied: role cookie does not match session", zap.String("session_id", sess.ID))
			return domain.NewUnauthorizedError("Please log in to continue.")
		}
		if !d.Allowed {
			log.Info("Route denied", zap.String("reason", d.Reason))
			return domain.NewForbiddenError("You do not have permission to access this page.").
				WithContext("reason", d.Reason)
		}
		return c.Next()
	}
}
