package main

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const pdfMIMEType = "application/pdf"

// renderPDF lays out a reportDocument as a single A4 PDF using the core Arial
// font. Core fonts only cover cp1252, so every string is normalized and then
// translated before it is drawn.
func renderPDF(doc reportDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(normalizeText(s)) }

	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 10, text(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	for i, section := range doc.Sections {
		// The introduction reads as a lead paragraph under the title.
		if i > 0 {
			pdf.SetFont("Arial", "B", 14)
			pdf.SetTextColor(0, 102, 204)
			pdf.CellFormat(0, 10, text(section.Title), "", 1, "L", false, 0, "")
		}

		pdf.SetFont("Arial", "", 12)
		pdf.SetTextColor(0, 0, 0)
		for _, row := range section.Rows {
			if row.Highlight {
				pdf.SetFillColor(230, 240, 250)
				pdf.SetDrawColor(0, 102, 204)
				pdf.SetFont("Arial", "B", 12)
				pdf.CellFormat(0, 9, text(row.String()), "1", 1, "L", true, 0, "")
				pdf.Ln(1)
				pdf.SetFont("Arial", "", 12)
				continue
			}
			pdf.CellFormat(0, 8, text(row.String()), "", 1, "L", false, 0, "")
		}
		for _, line := range section.Lines {
			pdf.MultiCell(0, 8, text(line), "", "L", false)
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
