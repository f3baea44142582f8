package invoice

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 72.0 // 1 inch
	pdfFont       = "Helvetica"
	pdfRowHeight  = 18.0
	pdfTextHeight = 14.0
)

// PDFRenderer draws invoices on US Letter pages with gofpdf. Output is
// byte-stable for a given layout.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) Extension() string { return "pdf" }

func (r *PDFRenderer) Render(ctx context.Context, layout Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreationDate(layout.IssuedAt)
	pdf.SetModificationDate(layout.IssuedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(layout.OrderID, true)
	pdf.SetAuthor(layout.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	// header
	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(contentW, 24, tr(layout.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	for _, line := range layout.HeaderLines {
		pdf.CellFormat(contentW, pdfTextHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfTextHeight)

	// metadata
	for _, line := range layout.Meta {
		pdf.CellFormat(contentW, pdfTextHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(pdfTextHeight)

	// line items, centred on the page
	tableX := (pageW - layout.TableWidth()) / 2
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.5)
	pdf.SetFillColor(211, 211, 211)
	drawHeader := func() {
		pdf.SetFont(pdfFont, "B", 10)
		pdf.SetX(tableX)
		for _, col := range layout.Columns {
			pdf.CellFormat(col.Width, pdfRowHeight, col.Title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 10)
	}
	drawHeader()
	for _, row := range layout.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			drawHeader()
		}
		pdf.SetX(tableX)
		for i, col := range layout.Columns {
			text := ""
			if i < len(row) {
				text = fitText(pdf, tr(row[i]), col.Width-4)
			}
			pdf.CellFormat(col.Width, pdfRowHeight, text, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(pdfTextHeight)

	// summary, flush right
	labelW, amountW := layout.SummaryCols[0], layout.SummaryCols[1]
	summaryX := pageW - pdfMargin - labelW - amountW
	summaryH := float64(len(layout.Summary)) * pdfTextHeight
	if pdf.GetY()+summaryH > pageH-pdfMargin {
		pdf.AddPage()
	}
	for _, row := range layout.Summary {
		style := ""
		if row.Emphasis {
			style = "B"
			y := pdf.GetY()
			pdf.Line(summaryX, y, summaryX+labelW+amountW, y)
		}
		pdf.SetFont(pdfFont, style, 9)
		pdf.SetX(summaryX)
		pdf.CellFormat(labelW, pdfTextHeight, tr(row.Label), "", 0, "R", false, 0, "")
		pdf.CellFormat(amountW, pdfTextHeight, tr(row.Amount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(pdfTextHeight * 2)

	// footer
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(contentW, pdfTextHeight, tr(layout.Closing), "", 1, "L", false, 0, "")
	pdf.Ln(pdfTextHeight * 2)
	for _, line := range layout.Signature {
		pdf.CellFormat(contentW, pdfTextHeight, tr(line), "", 1, "R", false, 0, "")
	}

	if pdf.Err() {
		return nil, fmt.Errorf("invoice: render pdf: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText shortens s with an ellipsis until it fits in width points. s is
// already translated to the single-byte core font encoding.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 {
		s = s[:len(s)-1]
		candidate := s + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
