package handler

import (
	"campus-portal/internal/domain"
	"campus-portal/internal/dto"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves CRUD routes for one entity type.
type CatalogHandler[T any, In any] struct {
	catalog *service.Catalog[T, In]
}

func NewCatalogHandler[T any, In any](catalog *service.Catalog[T, In]) *CatalogHandler[T, In] {
	return &CatalogHandler[T, In]{catalog: catalog}
}

// List godoc
// @Summary List entities
// @Description Lists students, professors, departments, courses, exams, exam-types, question-types, semesters or categories. Unknown query parameters are passed to the backend as filters.
// @Tags catalog
// @Produce json
// @Param resource path string true "Entity collection"
// @Param sort_by query string false "Sort key"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} dto.ListResponse[domain.Student]
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /{resource} [get]
func (h *CatalogHandler[T, In]) List(c *fiber.Ctx) error {
	page, err := h.catalog.List(c.UserContext(), middleware.ListQueryFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(page))
}

// Get godoc
// @Summary Get an entity
// @Tags catalog
// @Produce json
// @Param resource path string true "Entity collection"
// @Param id path int true "Entity ID"
// @Success 200 {object} domain.Student
// @Failure 404 {object} middleware.ErrorResponse
// @Router /{resource}/{id} [get]
func (h *CatalogHandler[T, In]) Get(c *fiber.Ctx) error {
	item, err := h.catalog.Get(c.UserContext(), middleware.IDParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// Create godoc
// @Summary Create an entity
// @Description The body is validated before it reaches the backend.
// @Tags catalog
// @Accept json
// @Produce json
// @Param resource path string true "Entity collection"
// @Param body body domain.StudentInput true "Entity fields"
// @Success 201 {object} domain.Student
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /{resource} [post]
func (h *CatalogHandler[T, In]) Create(c *fiber.Ctx) error {
	var in In
	if err := c.BodyParser(&in); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	created, err := h.catalog.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update godoc
// @Summary Update an entity
// @Tags catalog
// @Accept json
// @Produce json
// @Param resource path string true "Entity collection"
// @Param id path int true "Entity ID"
// @Param body body domain.StudentInput true "Entity fields"
// @Success 200 {object} domain.Student
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /{resource}/{id} [put]
func (h *CatalogHandler[T, In]) Update(c *fiber.Ctx) error {
	var in In
	if err := c.BodyParser(&in); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	updated, err := h.catalog.Update(c.UserContext(), middleware.IDParam(c, "id"), in)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// Delete godoc
// @Summary Delete an entity
// @Tags catalog
// @Param resource path string true "Entity collection"
// @Param id path int true "Entity ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /{resource}/{id} [delete]
func (h *CatalogHandler[T, In]) Delete(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), middleware.IDParam(c, "id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterCatalog mounts the CRUD routes of catalog under /<name>.
func RegisterCatalog[T any, In any](api fiber.Router, vm *middleware.ValidationMiddleware, catalog *service.Catalog[T, In]) {
	h := NewCatalogHandler(catalog)
	g := api.Group("/" + catalog.Name())
	g.Get("/", vm.ValidateListQuery(), h.List)
	g.Post("/", h.Create)
	g.Get("/:id", vm.ValidateID("id"), h.Get)
	g.Put("/:id", vm.ValidateID("id"), h.Update)
	g.Delete("/:id", vm.ValidateID("id"), h.Delete)
}
