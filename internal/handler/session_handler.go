package handler

import (
	"campus-portal/internal/authz"
	"campus-portal/internal/domain"
	"campus-portal/internal/dto"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler serves the countdown, the sidebar and the toast queue.
type SessionHandler struct {
	authService   service.AuthService
	notifications service.NotificationService
}

func NewSessionHandler(authService service.AuthService, notifications service.NotificationService) *SessionHandler {
	return &SessionHandler{authService: authService, notifications: notifications}
}

func requireSession(c *fiber.Ctx) (*domain.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, domain.NewUnauthorizedError("Please log in to continue.")
	}
	return sess, nil
}

// Status godoc
// @Summary Session countdown
// @Description Reports the countdown state. Polling this route does not count as activity.
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /session [get]
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	st, ok := middleware.SessionStatusFrom(c)
	if !ok {
		return domain.NewUnauthorizedError("Please log in to continue.")
	}
	return c.JSON(dto.NewSessionResponse(st))
}

// Extend godoc
// @Summary Stay signed in
// @Description Dismisses the timeout warning and restarts the countdown.
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} middleware.ErrorResponse "Session expired"
// @Router /session/extend [post]
func (h *SessionHandler) Extend(c *fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	st, err := h.authService.Extend(c.UserContext(), sess.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(st))
}

// Navigation godoc
// @Summary Sidebar
// @Description Lists the navigation items of the signed-in role.
// @Tags session
// @Produce json
// @Success 200 {object} dto.NavigationResponse
// @Router /navigation [get]
func (h *SessionHandler) Navigation(c *fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.NavigationResponse{Role: sess.Role, Items: authz.Sidebar(sess.Role)})
}

// Notifications godoc
// @Summary Pending notifications
// @Description Returns and removes the queued notifications of the session, oldest first.
// @Tags session
// @Produce json
// @Success 200 {object} dto.NotificationsResponse
// @Router /notifications [get]
func (h *SessionHandler) Notifications(c *fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	items, err := h.notifications.Drain(c.UserContext(), sess.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NotificationsResponse{Items: items})
}
