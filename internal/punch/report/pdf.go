package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/pkg/i18n"
)

// column widths in mm on a landscape A4 page
var pdfWidths = []float64{28, 45, 35, 30, 95, 22, 22}

// WritePDF writes r as a landscape table
func WritePDF(w io.Writer, r *domain.Report, l *i18n.Localizer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	// core fonts are cp1252, accented names need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(l.T("report.title")), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(l.T("report.date")+": "+r.Date), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers(l) {
		pdf.CellFormat(pdfWidths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range rows(r, l) {
		for i, c := range line.cells() {
			align := "L"
			if i >= 5 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 6, fit(pdf, tr(c), pdfWidths[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// fit shortens s until it fits a cell of width w. s is already cp1252, one
// byte per glyph.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	const pad = 2
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w-pad {
		s = s[:len(s)-1]
	}
	return s + "..."
}
