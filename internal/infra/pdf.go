package infra

// pdf.go renders the cash register closing report with go-pdf/fpdf.
// The report is A4 and lists the opening balance, totals per payment method,
// manual movements and the expected vs. counted reconciliation.
// Output: storagePath/caixa_{sessionID}.pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Code-Vida/apistock/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateCashReportPDF writes the closing report of a CLOSED session and
// returns the file path.
func GenerateCashReportPDF(storeName string, s *model.CashSession, storagePath string) (string, error) {
	if s.Status != model.CashClosed || s.ClosedAt == nil {
		return "", fmt.Errorf("pdf: session %s is not closed", s.ID)
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("caixa_%s.pdf", s.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Fechamento de Caixa"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Abertura: "+s.OpenedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("Fechamento: "+s.ClosedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	labelW := contentW * 0.6
	valueW := contentW * 0.4
	row := func(label string, v decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "R$ "+v.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW*0.7, 6, tr("Forma de pagamento"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(labelW*0.3, 6, tr("Vendas"), "B", 0, "C", false, 0, "")
	pdf.CellFormat(valueW, 6, "Total", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, t := range s.Totals {
		pdf.CellFormat(labelW*0.7, 6, tr(t.PaymentMethod), "", 0, "L", false, 0, "")
		pdf.CellFormat(labelW*0.3, 6, fmt.Sprintf("%d", t.Count), "", 0, "C", false, 0, "")
		pdf.CellFormat(valueW, 6, "R$ "+t.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	row("Saldo inicial", s.OpeningBalance, false)
	row("Suprimentos", s.TotalDeposits, false)
	row("Sangrias", s.TotalWithdrawals, false)
	if s.ClosingBalanceExpected != nil {
		row("Saldo esperado em dinheiro", *s.ClosingBalanceExpected, true)
	}
	if s.ClosingBalanceActual != nil {
		row("Saldo contado", *s.ClosingBalanceActual, true)
	}
	if s.Difference != nil {
		row("Diferença", *s.Difference, true)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
