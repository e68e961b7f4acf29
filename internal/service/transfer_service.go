package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/resource"
	"campus-portal/internal/transfer"

	"go.uber.org/zap"
)

// ImportReport summarizes a spreadsheet import. Rows rejected locally and rows
// rejected by the backend are both listed in Errors.
type ImportReport struct {
	Resource string              `json:"resource"`
	Created  int                 `json:"created"`
	Failed   int                 `json:"failed"`
	Errors   []transfer.RowError `json:"errors"`
}

// TransferService imports and exports entity spreadsheets.
type TransferService interface {
	Import(ctx context.Context, resourceName string, r io.Reader) (*ImportReport, error)
	Export(ctx context.Context, resourceName string, w io.Writer) error
}

type transferServiceImpl struct {
	catalogs *Catalogs
	audit    AuditService
	notifier domain.Notifier
}

func NewTransferService(catalogs *Catalogs, audit AuditService, notifier domain.Notifier) TransferService {
	return &transferServiceImpl{catalogs: catalogs, audit: audit, notifier: notifier}
}

// Transferable lists the resources that support import and export.
var Transferable = []string{resource.Students, resource.Professors, resource.Courses}

func unsupportedTransfer(name string) error {
	return domain.NewNotFoundError(fmt.Sprintf("%s does not support import or export", name))
}

func (s *transferServiceImpl) Import(ctx context.Context, resourceName string, r io.Reader) (*ImportReport, error) {
	if _, err := requireRole(ctx, "only administrators can import spreadsheets", domain.RoleAdmin); err != nil {
		return nil, err
	}
	var (
		report *ImportReport
		err    error
	)
	switch resourceName {
	case resource.Students:
		report, err = importRows(ctx, resourceName, r, transfer.ImportStudents, s.catalogs.Students)
	case resource.Professors:
		report, err = importRows(ctx, resourceName, r, transfer.ImportProfessors, s.catalogs.Professors)
	case resource.Courses:
		report, err = importRows(ctx, resourceName, r, transfer.ImportCourses, s.catalogs.Courses)
	default:
		return nil, unsupportedTransfer(resourceName)
	}
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, domain.AuditImport, resourceName, "",
		fmt.Sprintf("%d created, %d failed", report.Created, report.Failed))
	if s.notifier != nil {
		n := domain.Notification{Level: domain.LevelSuccess, Message: fmt.Sprintf("Imported %d %s", report.Created, resourceName)}
		if report.Failed > 0 {
			n.Level = domain.LevelWarning
			n.Message = fmt.Sprintf("Imported %d %s, %d rows failed", report.Created, resourceName, report.Failed)
		}
		s.notifier.Notify(ctx, n)
	}
	return report, nil
}

// importRows parses r and creates every accepted row. Creation errors are
// collected per row; the per-request notification is suppressed so one bad
// file does not flood the toast queue.
func importRows[T any, In any](
	ctx context.Context,
	name string,
	r io.Reader,
	parse func(io.Reader) (*transfer.ImportResult[In], error),
	catalog *Catalog[T, In],
) (*ImportReport, error) {
	parsed, err := parse(r)
	if err != nil {
		return nil, err
	}
	report := &ImportReport{Resource: name, Errors: parsed.Errors}
	for _, row := range parsed.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := catalog.Create(ctx, row.Value, apiclient.Silent()); err != nil {
			report.Errors = append(report.Errors, rowError(row.Row, err))
			continue
		}
		report.Created++
	}
	report.Failed = len(report.Errors)
	logger.Get().Info("Spreadsheet imported",
		zap.String("resource", name),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed))
	return report, nil
}

func rowError(row int, err error) transfer.RowError {
	re := transfer.RowError{Row: row, Message: err.Error()}
	var verrs domain.ValidationErrors
	var derr *domain.DomainError
	switch {
	case errors.As(err, &verrs):
		re.Message = "validation failed"
		re.Fields = verrs
	case errors.As(err, &derr):
		re.Message = derr.Message
		if msg, ok := derr.Context["backend_message"].(string); ok && msg != "" {
			re.Message = msg
		}
	}
	return re
}

func (s *transferServiceImpl) Export(ctx context.Context, resourceName string, w io.Writer) error {
	if _, err := requireRole(ctx, "only staff can export spreadsheets", domain.RoleAdmin, domain.RoleProfessor); err != nil {
		return err
	}
	switch resourceName {
	case resource.Students:
		items, err := s.catalogs.Students.All(ctx, nil)
		if err != nil {
			return err
		}
		return transfer.ExportStudents(w, items)
	case resource.Professors:
		items, err := s.catalogs.Professors.All(ctx, nil)
		if err != nil {
			return err
		}
		return transfer.ExportProfessors(w, items)
	case resource.Courses:
		items, err := s.catalogs.Courses.All(ctx, nil)
		if err != nil {
			return err
		}
		return transfer.ExportCourses(w, items)
	}
	return unsupportedTransfer(resourceName)
}
