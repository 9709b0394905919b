package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"orbit/internal/core"
)

// StatementPDF renders the account statement. Currency is written in its
// ASCII form because the built-in PDF fonts have no rupee glyph.
func StatementPDF(w io.Writer, profile core.UserProfile, transactions []core.Transaction, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Orbit Statement", false)
	pdf.AddPage()

	// Brand header.
	pdf.SetFillColor(15, 23, 42)
	pdf.Rect(0, 0, 210, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(10, 8)
	pdf.Cell(0, 10, "ORBIT FINANCE")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(10, 18)
	pdf.Cell(0, 6, "Account Statement")

	pdf.SetTextColor(30, 30, 30)
	pdf.SetXY(10, 38)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, "Generated on "+now.Format("02 Jan 2006 15:04"))

	// Account block.
	pdf.SetXY(10, 48)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, profile.Name)
	pdf.SetXY(10, 54)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, profile.Email)
	pdf.SetXY(10, 60)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Balance: "+profile.Balance.DisplayASCII())

	// Totals line.
	income := core.TotalIncome(transactions)
	spent := core.TotalSpent(transactions)
	pdf.SetXY(10, 70)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total Income: %s    Total Spent: %s",
		income.DisplayASCII(), spent.DisplayASCII()))

	// Transaction table.
	pdf.SetY(82)
	widths := []float64{25, 70, 30, 35, 30}
	headers := []string{"Date", "Description", "Category", "Amount", "Type"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(226, 232, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range transactions {
		pdf.CellFormat(widths[0], 7, tx.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(tx.Name, 42), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, string(tx.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, asciiAmount(tx.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, transactionType(tx), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	// Footer.
	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.Cell(0, 5, "Generated by Orbit. This is not a tax document.")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
