package handler

import (
	"context"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the portal's own dependencies answer. The
// backend is not probed.
type HealthHandler struct {
	cache domain.Cache
	// db is nil when the audit log is disabled.
	db func(ctx context.Context) error
}

func NewHealthHandler(cache domain.Cache, db func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{cache: cache, db: db}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Redis: "ok"}
	if err := h.cache.Ping(ctx); err != nil {
		resp.Status, resp.Redis = "degraded", "unreachable"
	}
	if h.db != nil {
		resp.Database = "ok"
		if err := h.db(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
		}
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
