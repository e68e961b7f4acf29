package middleware

import (
	"time"

	"campus-portal/internal/config"

	"github.com/gofiber/fiber/v2"
)

// SetSessionCookies issues the session id cookie and the signed role cookie.
// The session cookie has no expiry of its own; the countdown decides.
func SetSessionCookies(c *fiber.Ctx, cfg config.SessionConfig, sessionID, roleCookie string, roleTTL time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     cfg.RoleCookieName,
		Value:    roleCookie,
		Path:     "/",
		Expires:  time.Now().Add(roleTTL),
		HTTPOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookies expires both portal cookies.
func ClearSessionCookies(c *fiber.Ctx, cfg config.SessionConfig) {
	for _, name := range []string{cfg.CookieName, cfg.RoleCookieName} {
		if name == "" {
			continue
		}
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}
