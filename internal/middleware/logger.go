package middleware

import (
	"time"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs every request once it has been handled and forwards the
// request id to backend calls.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID, _ := c.Locals("requestid").(string)
		if requestID != "" {
			c.SetUserContext(apiclient.WithRequestID(c.UserContext(), requestID))
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report the status it will choose.
			status = StatusFor(err)
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
			zap.String("request_id", requestID),
		}
		if sess, ok := SessionFrom(c); ok {
			fields = append(fields, zap.String("user_id", sess.UserID), zap.String("role", sess.Role.String()))
		}

		log := logger.Get()
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
		return err
	}
}
