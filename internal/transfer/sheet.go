// Package transfer imports entity inputs from XLSX files and exports entity
// lists to XLSX.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/validation"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ContentType is the MIME type of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Field binds one header of an import sheet to a field of In.
type Field[In any] struct {
	Header   string
	Required bool
	Set      func(in *In, value string) error
}

// Column renders one column of an export sheet.
type Column[T any] struct {
	Header string
	Value  func(T) interface{}
}

// Row is a parsed, valid input together with its 1-based sheet row.
type Row[In any] struct {
	Row   int `json:"row"`
	Value In  `json:"value"`
}

// RowError explains why a row was skipped.
type RowError struct {
	Row     int                     `json:"row"`
	Message string                  `json:"message"`
	Fields  domain.ValidationErrors `json:"fields,omitempty"`
}

// ImportResult holds the accepted rows and the rejected ones.
type ImportResult[In any] struct {
	Rows   []Row[In]  `json:"-"`
	Errors []RowError `json:"errors"`
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// Import reads the first sheet of an XLSX workbook. The first row is the
// header, matched case-insensitively; every following non-blank row is bound
// and validated. Invalid rows are reported and skipped.
func Import[In any](r io.Reader, fields []Field[In], v *validation.Validator) (*ImportResult[In], error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewUnsupportedFileError("upload", ".xlsx").WithContext("reason", err.Error())
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Get().Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, domain.NewInvalidInputError("workbook does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("failed to read sheet %s", sheet)).WithContext("reason", err.Error())
	}
	if len(rows) == 0 {
		return nil, domain.NewInvalidInputError("sheet is empty")
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[normalizeHeader(h)] = i
	}
	positions := make([]int, len(fields))
	var missing []string
	for i, fld := range fields {
		pos, ok := index[normalizeHeader(fld.Header)]
		if !ok {
			pos = -1
			if fld.Required {
				missing = append(missing, fld.Header)
			}
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, domain.NewInvalidInputError("missing columns: "+strings.Join(missing, ", ")).
			WithContext("missing", missing)
	}

	result := &ImportResult[In]{Rows: []Row[In]{}, Errors: []RowError{}}
	for i, cells := range rows[1:] {
		rowNum := i + 2
		if blank(cells) {
			continue
		}
		var in In
		var bindErr error
		for j, fld := range fields {
			pos := positions[j]
			if pos < 0 || pos >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[pos])
			if value == "" {
				continue
			}
			if err := fld.Set(&in, value); err != nil {
				bindErr = fmt.Errorf("%s: %w", fld.Header, err)
				break
			}
		}
		if bindErr != nil {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: bindErr.Error()})
			continue
		}
		if err := v.Struct(in); err != nil {
			rowErr := RowError{Row: rowNum, Message: "validation failed"}
			var verrs domain.ValidationErrors
			if errors.As(err, &verrs) {
				rowErr.Fields = verrs
			} else {
				rowErr.Message = err.Error()
			}
			result.Errors = append(result.Errors, rowErr)
			continue
		}
		result.Rows = append(result.Rows, Row[In]{Row: rowNum, Value: in})
	}
	logger.Get().Debug("Workbook parsed",
		zap.String("sheet", sheet),
		zap.Int("accepted", len(result.Rows)),
		zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Export writes items to w as a single-sheet workbook with a bold header row.
func Export[T any](w io.Writer, sheet string, columns []Column[T], items []T) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Get().Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return domain.NewInternalError("failed to name sheet", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return domain.NewInternalError("failed to create header style", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return domain.NewInternalError("failed to write header", err)
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return domain.NewInternalError("failed to style header", err)
		}
	}

	for r, item := range items {
		row := make([]interface{}, len(columns))
		for i, c := range columns {
			row[i] = c.Value(item)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return domain.NewInternalError(fmt.Sprintf("failed to write row %d", r+2), err)
		}
	}

	if err := f.Write(w); err != nil {
		return domain.NewInternalError("failed to write workbook", err)
	}
	return nil
}

func parseInt64(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Spreadsheet numbers often come back as "12.0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%q is not a whole number", v)
		}
		return int64(f), nil
	}
	return n, nil
}
