package handler

import (
	"campus-portal/internal/dto"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboard service.DashboardService
	audit     service.AuditService
}

func NewDashboardHandler(dashboard service.DashboardService, audit service.AuditService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, audit: audit}
}

// Dashboard godoc
// @Summary Landing page
// @Description Returns the dashboard sections of the signed-in role.
// @Tags dashboard
// @Produce json
// @Success 200 {object} service.Dashboard
// @Failure 502 {object} middleware.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.dashboard.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// Audit godoc
// @Summary Audit log
// @Description Lists portal mutations, newest first. Admin only.
// @Tags dashboard
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.AuditListResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /audit [get]
func (h *DashboardHandler) Audit(c *fiber.Ctx) error {
	q := middleware.ListQueryFrom(c)
	page, err := h.audit.List(c.UserContext(), q.Page, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.MapListResponse(page, dto.NewAuditEntryResponse))
}
