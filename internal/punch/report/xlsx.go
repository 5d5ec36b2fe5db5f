package report

import (
	"fmt"
	"io"

	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Ponto"

// WriteXLSX writes r as a single sheet workbook
func WriteXLSX(w io.Writer, r *domain.Report, l *i18n.Localizer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	f.SetCellValue(sheetName, "A1", l.T("report.title"))
	f.SetCellValue(sheetName, "A2", l.T("report.date"))
	f.SetCellValue(sheetName, "B2", r.Date)

	header := headers(l)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A4", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 4)
		f.SetCellStyle(sheetName, "A4", last, bold)
		f.SetCellStyle(sheetName, "A1", "A1", bold)
	}

	for i, line := range rows(r, l) {
		cell, _ := excelize.CoordinatesToCellName(1, 5+i)
		values := []interface{}{
			line.employeeID, line.name, line.department, line.status, line.punches,
			line.worked, line.onBreak,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "C", 24)
	f.SetColWidth(sheetName, "D", "D", 18)
	f.SetColWidth(sheetName, "E", "E", 60)
	f.SetColWidth(sheetName, "F", "G", 16)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
