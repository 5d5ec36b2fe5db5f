package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/samtime/samtime-backend/internal/punch/domain"
	"github.com/samtime/samtime-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *domain.Report {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return &domain.Report{
		CompanyID: 7,
		Date:      "2024-03-04",
		Employees: []*domain.EmployeeDay{
			{
				EmployeeID: "EMP-7-001",
				Name:       "João Silva",
				Department: "Operações",
				Status:     domain.StatusClockedOut,
				Punches: []*domain.PunchLine{
					{Kind: domain.KindClockIn, At: day.Add(8 * time.Hour)},
					{Kind: domain.KindClockOut, At: day.Add(17 * time.Hour)},
				},
				Totals: domain.Totals{WorkedMinutes: 540},
			},
			{
				EmployeeID: "EMP-7-002",
				Name:       "Ana",
				Status:     domain.StatusClockedOut,
				Punches:    []*domain.PunchLine{},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "XLSX": FormatXLSX, " pdf ": FormatPDF} {
		got, ok := ParseFormat(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseFormat("csv")
	assert.False(t, ok)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "ponto-7-2024-03-04.xlsx", Filename(sampleReport(), FormatXLSX))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(), i18n.NewLocalizer("en")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	cell := func(axis string) string {
		v, err := f.GetCellValue(sheetName, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Daily punch report", cell("A1"))
	assert.Equal(t, "2024-03-04", cell("B2"))
	assert.Equal(t, "ID", cell("A4"))
	assert.Equal(t, "EMP-7-001", cell("A5"))
	assert.Equal(t, "João Silva", cell("B5"))
	assert.Equal(t, "08:00 Clock in, 17:00 Clock out", cell("E5"))
	assert.Equal(t, "540", cell("F5"))
	assert.Equal(t, "EMP-7-002", cell("A6"))
	assert.Equal(t, "", cell("E6"))
}

func TestWriteXLSX_Portuguese(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(), i18n.NewLocalizer("pt")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.NotEqual(t, "Daily punch report", title)
	assert.NotEqual(t, "report.title", title)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport(), i18n.NewLocalizer("pt")))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWritePDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := &domain.Report{CompanyID: 1, Date: "2024-01-01", Employees: []*domain.EmployeeDay{}}
	require.NoError(t, WritePDF(&buf, r, i18n.NewLocalizer("en")))
	assert.Greater(t, buf.Len(), 0)
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, FormatJSON, sampleReport(), i18n.NewLocalizer("en")))
}

func TestFit_MeasuresTranslatedText(t *testing.T) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 8)

	name := tr("João Conceição Glória")
	w := pdf.GetStringWidth(name) + 2.5
	assert.Equal(t, name, fit(pdf, name, w))

	long := tr(strings.Repeat("Ação ", 20))
	got := fit(pdf, long, 30)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, pdf.GetStringWidth(got), 28.0)
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(got, "...")))
}
