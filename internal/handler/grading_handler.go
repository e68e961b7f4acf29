package handler

import (
	"fmt"
	"mime/multipart"
	"os"

	"campus-portal/internal/domain"
	"campus-portal/internal/dto"
	"campus-portal/internal/logger"
	"campus-portal/internal/middleware"
	"campus-portal/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GradingHandler serves the answer upload and grading workflow.
type GradingHandler struct {
	grading service.GradingService
	tempDir string
}

// NewGradingHandler spools uploaded archives into tempDir; an empty tempDir
// means os.TempDir().
func NewGradingHandler(grading service.GradingService, tempDir string) *GradingHandler {
	return &GradingHandler{grading: grading, tempDir: tempDir}
}

// spooledFile is a multipart file copied to disk. Closing it removes it.
type spooledFile struct {
	*os.File
}

func (f spooledFile) Close() error {
	err := f.File.Close()
	if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
		logger.Get().Warn("Failed to remove spooled upload", zap.String("path", f.Name()), zap.Error(rmErr))
	}
	return err
}

// spool copies fh out of the request body, which is released once the
// handler returns while the upload keeps running.
func (h *GradingHandler) spool(c *fiber.Ctx, fh *multipart.FileHeader) (spooledFile, error) {
	tmp, err := os.CreateTemp(h.tempDir, "answers-*.zip")
	if err != nil {
		return spooledFile{}, domain.NewInternalError("failed to buffer upload", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := c.SaveFile(fh, path); err != nil {
		os.Remove(path)
		return spooledFile{}, domain.NewInternalError("failed to buffer upload", err)
	}
	f, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		return spooledFile{}, domain.NewInternalError("failed to buffer upload", err)
	}
	return spooledFile{File: f}, nil
}

// UploadAnswers godoc
// @Summary Upload exam answers
// @Description Starts a chunked upload of a ZIP archive to the backend and returns immediately. Progress and the final outcome are reported through the upload status route and the notification queue.
// @Tags grading
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Exam ID"
// @Param file formData file true "Answers archive (.zip)"
// @Success 202 {object} dto.UploadAcceptedResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 415 {object} middleware.ErrorResponse
// @Router /exams/{id}/answers [post]
func (h *GradingHandler) UploadAnswers(c *fiber.Ctx) error {
	examID := middleware.IDParam(c, "id")
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.NewInvalidInputError("a file field named \"file\" is required")
	}
	f, err := h.spool(c, fh)
	if err != nil {
		return err
	}

	// The service owns f from here on, including on validation errors.
	id, err := h.grading.UploadAnswers(c.UserContext(), examID, fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.UploadAcceptedResponse{
		UploadID:  id,
		StatusURL: fmt.Sprintf("/api/uploads/%s", id),
	})
}

// UploadStatus godoc
// @Summary Upload progress
// @Tags grading
// @Produce json
// @Param uploadId path string true "Upload ID"
// @Success 200 {object} upload.Status
// @Failure 404 {object} middleware.ErrorResponse
// @Router /uploads/{uploadId} [get]
func (h *GradingHandler) UploadStatus(c *fiber.Ctx) error {
	st, err := h.grading.UploadStatus(c.UserContext(), c.Params("uploadId"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// AbortUpload godoc
// @Summary Abort an upload
// @Description Cancels a running upload. No further chunks are sent.
// @Tags grading
// @Param uploadId path string true "Upload ID"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse "Upload is not running"
// @Failure 404 {object} middleware.ErrorResponse
// @Router /uploads/{uploadId} [delete]
func (h *GradingHandler) AbortUpload(c *fiber.Ctx) error {
	if err := h.grading.AbortUpload(c.UserContext(), c.Params("uploadId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Grade godoc
// @Summary Start grading
// @Tags grading
// @Produce json
// @Param id path int true "Exam ID"
// @Success 202 {object} domain.GradingJob
// @Router /exams/{id}/grade [post]
func (h *GradingHandler) Grade(c *fiber.Ctx) error {
	job, err := h.grading.Grade(c.UserContext(), middleware.IDParam(c, "id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// Results godoc
// @Summary Exam results
// @Tags grading
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {array} domain.ExamResult
// @Failure 403 {object} middleware.ErrorResponse
// @Router /exams/{id}/results [get]
func (h *GradingHandler) Results(c *fiber.Ctx) error {
	results, err := h.grading.Results(c.UserContext(), middleware.IDParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// OverrideResult godoc
// @Summary Override a score
// @Tags grading
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param studentId path int true "Student ID"
// @Param body body domain.GradeOverride true "New score"
// @Success 200 {object} domain.ExamResult
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /exams/{id}/results/{studentId} [put]
func (h *GradingHandler) OverrideResult(c *fiber.Ctx) error {
	var o domain.GradeOverride
	if err := c.BodyParser(&o); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	res, err := h.grading.OverrideResult(c.UserContext(), middleware.IDParam(c, "id"), middleware.IDParam(c, "studentId"), o)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Publish godoc
// @Summary Publish results
// @Description Makes the exam's results visible to its students.
// @Tags grading
// @Param id path int true "Exam ID"
// @Success 204
// @Router /exams/{id}/publish [post]
func (h *GradingHandler) Publish(c *fiber.Ctx) error {
	if err := h.grading.Publish(c.UserContext(), middleware.IDParam(c, "id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StudentResults godoc
// @Summary A student's results
// @Description Students may only read their own published results.
// @Tags grading
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {array} domain.ExamResult
// @Failure 403 {object} middleware.ErrorResponse
// @Router /students/{id}/results [get]
func (h *GradingHandler) StudentResults(c *fiber.Ctx) error {
	results, err := h.grading.StudentResults(c.UserContext(), middleware.IDParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(results)
}

// RegisterGrading mounts the grading routes. It must run before
// RegisterCatalog for exams and students.
func RegisterGrading(api fiber.Router, vm *middleware.ValidationMiddleware, h *GradingHandler) {
	api.Post("/exams/:id/answers", vm.ValidateID("id"), h.UploadAnswers)
	api.Post("/exams/:id/grade", vm.ValidateID("id"), h.Grade)
	api.Get("/exams/:id/results", vm.ValidateID("id"), h.Results)
	api.Put("/exams/:id/results/:studentId", vm.ValidateID("id", "studentId"), h.OverrideResult)
	api.Post("/exams/:id/publish", vm.ValidateID("id"), h.Publish)
	api.Get("/students/:id/results", vm.ValidateID("id"), h.StudentResults)

	api.Get("/uploads/:uploadId", h.UploadStatus)
	api.Delete("/uploads/:uploadId", h.AbortUpload)
}
