package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/santa/internal/core"
)

// PDFExporter exports games to PDF format. The first page summarizes the
// game; every assignment then gets its own reveal slip.
type PDFExporter struct{}

// Export writes the game as PDF.
func (e *PDFExporter) Export(sheet *Sheet, w io.Writer) error {
	game := sheet.Game

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, "Exported from santa", "", 0, "C", false, 0, "")
	})

	// Add first page
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, tr(game.Name), "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Game Information")
	pdf.Ln(8)

	e.addMetadataRow(pdf, "ID:", core.ShortID(game.ID)+"...")
	e.addMetadataRow(pdf, "Mode:", string(game.Mode))
	e.addMetadataRow(pdf, "Status:", string(game.Status))
	e.addMetadataRow(pdf, "Created:", game.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	if game.CompletedAt != nil {
		e.addMetadataRow(pdf, "Completed:", game.CompletedAt.Format("January 2, 2006 at 3:04 PM"))
		e.addMetadataRow(pdf, "Duration:", formatDuration(game.CreatedAt, *game.CompletedAt))
	}
	pdf.Ln(5)

	// Participants section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Participants (%d)", len(sheet.Participants)))
	pdf.Ln(8)

	if len(sheet.Participants) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No participants yet.")
		pdf.Ln(6)
	} else {
		pdf.SetFillColor(200, 230, 255) // Light blue
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, "Name", "1", 0, "", true, 0, "")
		pdf.CellFormat(0, 7, "Contact", "1", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range sheet.Participants {
			pdf.CellFormat(60, 6, tr(p.Name), "1", 0, "", false, 0, "")
			pdf.CellFormat(0, 6, tr(p.Contact), "1", 1, "", false, 0, "")
		}
	}
	pdf.Ln(5)

	pending := sheet.Pending()
	if len(sheet.Assignments) > 0 && len(pending) > 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(0, 5, tr("Still to draw: "+strings.Join(core.Names(pending), ", ")), "", "", false)
	}

	// Reveal slips
	for _, a := range sheet.Assignments {
		receiver, _ := core.FindParticipant(sheet.Participants, a.Receiver)
		e.addSlip(pdf, tr, a, receiver)
	}

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// ContentType returns the MIME type for PDF.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Helper to add a metadata row
func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// addSlip renders one giver's reveal on its own page.
func (e *PDFExporter) addSlip(pdf *gofpdf.Fpdf, tr func(string) string, a core.Assignment, receiver core.Participant) {
	pdf.AddPage()

	pdf.SetFillColor(200, 255, 200) // Light green
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr("For "+a.Giver), "", 1, "C", true, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "You are the Secret Santa for", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 14, tr(a.Receiver), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Gift ideas:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(wishesOf(receiver)), "", "", false)
}
