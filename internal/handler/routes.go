package handler

import (
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Routes holds everything RegisterRoutes mounts.
type Routes struct {
	Auth       *AuthHandler
	Session    *SessionHandler
	Transfer   *TransferHandler
	Grading    *GradingHandler
	Dashboard  *DashboardHandler
	Health     *HealthHandler
	Catalogs   *service.Catalogs
	Validation *middleware.ValidationMiddleware
}

// RegisterRoutes mounts the portal API under /api and the health check.
// Session and authorization middleware are expected on app already.
func RegisterRoutes(app *fiber.App, r Routes) {
	app.Get("/health", r.Health.Health)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Post("/logout", r.Auth.Logout)

	api.Get("/session", r.Session.Status)
	api.Post("/session/extend", r.Session.Extend)
	api.Get("/navigation", r.Session.Navigation)
	api.Get("/notifications", r.Session.Notifications)

	api.Get("/dashboard", r.Dashboard.Dashboard)
	api.Get("/audit", r.Validation.ValidateListQuery(), r.Dashboard.Audit)

	// Fixed segments first so /:id does not swallow them.
	RegisterTransfer(api, r.Transfer)
	RegisterGrading(api, r.Validation, r.Grading)

	vm, c := r.Validation, r.Catalogs
	RegisterCatalog(api, vm, c.Students)
	RegisterCatalog(api, vm, c.Professors)
	RegisterCatalog(api, vm, c.Departments)
	RegisterCatalog(api, vm, c.Courses)
	RegisterCatalog(api, vm, c.Exams)
	RegisterCatalog(api, vm, c.ExamTypes)
	RegisterCatalog(api, vm, c.QuestionTypes)
	RegisterCatalog(api, vm, c.Semesters)
	RegisterCatalog(api, vm, c.Categories)
}
