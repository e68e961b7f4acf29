package handler

import (
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/dto"
	"campus-portal/internal/logger"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"
	"campus-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	appConfig   *config.Config // cookie names and TTLs
}

func NewAuthHandler(authService service.AuthService, appConfig *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		appConfig:   appConfig,
	}
}

// Login signs a user in against the backend.
// @Summary Sign in
// @Description Exchanges credentials with the backend, starts the inactivity countdown and sets the session and role cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid username or password"
// @Failure 503 {object} middleware.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if err := validation.Default().Struct(req); err != nil {
		return err
	}

	out, err := h.authService.Login(c.UserContext(), req.Credentials())
	if err != nil {
		logger.Get().Info("Login failed", zap.String("username", req.Username), zap.Error(err))
		return err
	}

	middleware.SetSessionCookies(c, h.appConfig.Session, out.Session.ID, out.RoleCookie, h.appConfig.JWT.RoleCookieTTL)
	return c.JSON(dto.LoginResponse{
		User:    dto.NewUserResponse(out.Session),
		Session: dto.NewSessionResponse(out.Status),
	})
}

// Logout handles user logout.
// @Summary Sign out
// @Description Ends the session countdown, deletes the session record and clears the cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return domain.NewUnauthorizedError("Please log in to continue.")
	}
	if err := h.authService.Logout(c.UserContext(), sess.ID); err != nil {
		logger.Get().Warn("Logout did not complete cleanly", zap.String("session_id", sess.ID), zap.Error(err))
	}
	middleware.ClearSessionCookies(c, h.appConfig.Session)
	return c.JSON(dto.MessageResponse{Message: "Signed out"})
}
