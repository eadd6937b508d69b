package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"financas/internal/core"
)

var (
	columnWidths = []float64{70, 38, 38, 38}
	accent       = [3]int{111, 59, 245}
)

// WritePDF renders r as an A4 document: title, generation date, period,
// the category table and a summary block.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(14, 20, tr(Title))

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(14, 30, tr("Gerado em: "+r.GeneratedOn()))
	pdf.Text(14, 38, tr("Periodo: "+r.PeriodLabel))

	pdf.SetXY(14, 48)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(accent[0], accent[1], accent[2])
	pdf.SetTextColor(255, 255, 255)
	for i, h := range Header {
		pdf.CellFormat(columnWidths[i], 8, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range r.Table()[1:] {
		pdf.SetX(14)
		for i, v := range line {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(columnWidths[i], 8, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	y := pdf.GetY() + 12
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(14, y, "Resumo")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(14, y+8, tr("Total de entradas: "+core.FormatAmount(r.Totals.Entries)))
	pdf.Text(14, y+16, tr("Total de saidas: "+core.FormatAmount(r.Totals.Exits)))
	pdf.Text(14, y+24, tr("Saldo: "+core.FormatAmount(r.Totals.Balance)))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
