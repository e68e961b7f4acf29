package handler

import (
	"bytes"
	"fmt"
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/service"
	"campus-portal/internal/transfer"

	"github.com/gofiber/fiber/v2"
)

// TransferHandler imports and exports spreadsheets.
type TransferHandler struct {
	transfers service.TransferService
}

func NewTransferHandler(transfers service.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Import godoc
// @Summary Import a spreadsheet
// @Description Creates one entity per valid row of the first sheet. Rows that fail validation or are rejected by the backend are reported and skipped.
// @Tags transfer
// @Accept multipart/form-data
// @Produce json
// @Param resource path string true "students, professors or courses"
// @Param file formData file true "XLSX workbook"
// @Success 200 {object} service.ImportReport
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 415 {object} middleware.ErrorResponse
// @Router /{resource}/import [post]
func (h *TransferHandler) Import(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return domain.NewInvalidInputError("a file field named \"file\" is required")
		}
		f, err := fh.Open()
		if err != nil {
			return domain.NewInternalError("failed to open uploaded file", err)
		}
		defer f.Close()

		report, err := h.transfers.Import(c.UserContext(), resource, f)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

// Export godoc
// @Summary Export a spreadsheet
// @Tags transfer
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param resource path string true "students, professors or courses"
// @Success 200 {file} file
// @Router /{resource}/export [get]
func (h *TransferHandler) Export(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := h.transfers.Export(c.UserContext(), resource, &buf); err != nil {
			return err
		}
		name := fmt.Sprintf("%s-%s.xlsx", resource, time.Now().Format("20060102"))
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, transfer.ContentType)
		return c.Send(buf.Bytes())
	}
}

// RegisterTransfer mounts import and export for every transferable resource.
// It must run before RegisterCatalog so /export is not taken for an id.
func RegisterTransfer(api fiber.Router, h *TransferHandler) {
	for _, name := range service.Transferable {
		api.Post("/"+name+"/import", h.Import(name))
		api.Get("/"+name+"/export", h.Export(name))
	}
}
