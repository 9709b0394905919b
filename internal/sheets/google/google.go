package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"orbit/internal/core"
	ports "orbit/internal/sheets"
)

// Client appends statement rows to a Google Sheets ledger. One worksheet
// per year, named "<year> <base>".
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var _ ports.LedgerAppender = (*Client)(nil)

// NewFromEnv creates a ledger client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_LEDGER_SHEET_NAME (default "Statements").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if base == "" {
		base = "Statements"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   yearPrefixedName(base, time.Now().Year()),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes one statement row and returns the updated range as the
// row reference.
func (c *Client) Append(ctx context.Context, userID string, tx core.Transaction) (string, error) {
	vr := &gsheet.ValueRange{
		Values: [][]any{ledgerRow(userID, tx)},
	}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.ledgerSheet+"!A:G", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append ledger row: %w", err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}

	slog.InfoContext(ctx, "Ledger row appended",
		"user_id", userID,
		"transaction_id", tx.ID,
		"range", ref)
	return ref, nil
}

// ledgerRow flattens a transaction into the worksheet's column order:
// archived-at, user, date, description, category, amount, type.
func ledgerRow(userID string, tx core.Transaction) []any {
	kind := "Expense"
	if tx.IsIncome {
		kind = "Income"
	}
	return []any{
		time.Now().UTC().Format(time.RFC3339),
		userID,
		tx.Date.UTC().Format("2006-01-02"),
		tx.Name,
		string(tx.Category),
		amountValue(tx.Amount),
		kind,
	}
}

// amountValue strips the currency glyph so the sheet gets a plain number.
func amountValue(amount string) any {
	m, err := core.ParseAmount(amount)
	if err != nil {
		return amount
	}
	return m.Rupees()
}

func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}
