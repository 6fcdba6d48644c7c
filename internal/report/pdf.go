package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/internal/domain/types"
)

func renderPDF(w io.Writer, d types.Dashboard) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(titleDashboard+" "+d.Date, true)
	if !d.FetchedAt.IsZero() {
		pdf.SetCreationDate(d.FetchedAt)
	}
	// Core fonts are cp1252; names and notes arrive as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(titleDashboard))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(subtitle(d)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(summary(d)))
	pdf.Ln(8)
	if d.RefreshError != "" {
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, tr("Last refresh failed: "+d.RefreshError), "", "", false)
		pdf.SetTextColor(0, 0, 0)
	}

	if len(d.Alerts) > 0 {
		pdfSection(pdf, tr, titleAlerts)
		for _, c := range d.Alerts {
			pdfPlayer(pdf, tr, c)
			pdf.SetFont("Arial", "", 11)
			pdf.Cell(0, 6, tr("    "+join("  ", c.Feeling, c.Physical, label("Energy", c.Energy))))
			pdf.Ln(6)
			pdfNotes(pdf, tr, c)
			if c.Date != "" {
				pdf.Cell(0, 6, "    "+c.Date)
				pdf.Ln(6)
			}
		}
	}

	pdfSection(pdf, tr, titleToday)
	if len(d.Today) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.Cell(0, 6, "  No check-ins yet.")
		pdf.Ln(6)
	}
	for _, c := range d.Today {
		pdfPlayer(pdf, tr, c)
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(0, 6, tr("    "+join("  ",
			label("Feeling", c.Feeling), label("Energy", c.Energy), label("Physical", c.Physical))))
		pdf.Ln(6)
		pdfNotes(pdf, tr, c)
	}

	if len(d.Missing) > 0 {
		pdfSection(pdf, tr, titleMissing)
		pdf.SetFont("Arial", "", 11)
		for _, c := range d.Missing {
			pdf.Cell(0, 6, tr(fmt.Sprintf("  #%s %s    Last: %s", c.Jersey, c.Name, c.LastContact)))
			pdf.Ln(6)
		}
	}

	if err := pdf.Output(w); err != nil {
		return err
	}
	return pdf.Error()
}

func pdfSection(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(9)
}

func pdfPlayer(pdf *fpdf.Fpdf, tr func(string) string, c checkin.Card) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 7, tr(fmt.Sprintf("  #%s %s", c.Jersey, c.Name)))
	pdf.Ln(7)
}

func pdfNotes(pdf *fpdf.Fpdf, tr func(string) string, c checkin.Card) {
	if c.Notes == "" {
		return
	}
	pdf.SetFont("Arial", "I", 11)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf("    %q", c.Notes)), "", "", false)
}
