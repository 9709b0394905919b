package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"orbit/internal/core"
)

// Statement CSV column order.
const (
	colDate = iota
	colDescription
	colCategory
	colAmount
	colType
	colCount
)

var csvHeader = []string{"Date", "Description", "Category", "Amount", "Type"}

// WriteCSV renders the statement as CSV. Amounts keep their sign but the
// currency glyph is replaced with its ASCII form so the file survives
// tools that choke on the rupee symbol.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, tx := range transactions {
		record := make([]string, colCount)
		record[colDate] = tx.Date.Format("2006-01-02")
		record[colDescription] = tx.Name
		record[colCategory] = string(tx.Category)
		record[colAmount] = asciiAmount(tx.Amount)
		record[colType] = transactionType(tx)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Filename names the download Orbit_Statement_<ISO-date>.<ext>.
func Filename(ext string, now time.Time) string {
	return fmt.Sprintf("Orbit_Statement_%s.%s", now.Format("2006-01-02"), ext)
}

func transactionType(tx core.Transaction) string {
	if tx.IsIncome {
		return "Income"
	}
	return "Expense"
}

func asciiAmount(amount string) string {
	m, err := core.ParseAmount(amount)
	if err != nil {
		return strings.ReplaceAll(amount, "₹", "Rs. ")
	}
	return m.DisplayASCII()
}
