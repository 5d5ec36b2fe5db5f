// Package report renders the daily punch report as a spreadsheet or PDF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/pkg/i18n"
)

// Format is a report output format
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat reads a format name, json when empty
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, true
	case FormatJSON, FormatXLSX, FormatPDF:
		return f, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Filename names the download of r in format f
func Filename(r *domain.Report, f Format) string {
	return fmt.Sprintf("ponto-%d-%s.%s", r.CompanyID, r.Date, f)
}

// Render writes r to w as a spreadsheet or PDF with labels from l
func Render(w io.Writer, f Format, r *domain.Report, l *i18n.Localizer) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r, l)
	case FormatPDF:
		return WritePDF(w, r, l)
	default:
		return fmt.Errorf("report format %q is not rendered", f)
	}
}

// row is one report line as text
type row struct {
	employeeID string
	name       string
	department string
	status     string
	punches    string
	worked     int
	onBreak    int
}

func headers(l *i18n.Localizer) []string {
	return []string{
		l.T("report.employee_id"),
		l.T("report.name"),
		l.T("report.department"),
		l.T("report.status"),
		l.T("report.punches"),
		l.T("report.worked"),
		l.T("report.break"),
	}
}

func rows(r *domain.Report, l *i18n.Localizer) []row {
	out := make([]row, 0, len(r.Employees))
	for _, e := range r.Employees {
		punches := make([]string, 0, len(e.Punches))
		for _, p := range e.Punches {
			punches = append(punches, p.At.Format("15:04")+" "+l.T("report.kinds."+string(p.Kind)))
		}
		out = append(out, row{
			employeeID: e.EmployeeID,
			name:       e.Name,
			department: e.Department,
			status:     l.T("report.statuses." + string(e.Status)),
			punches:    strings.Join(punches, ", "),
			worked:     e.WorkedMinutes,
			onBreak:    e.BreakMinutes,
		})
	}
	return out
}

func (r row) cells() []string {
	return []string{
		r.employeeID, r.name, r.department, r.status, r.punches,
		strconv.Itoa(r.worked), strconv.Itoa(r.onBreak),
	}
}
