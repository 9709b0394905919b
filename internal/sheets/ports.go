package sheets

import (
	"context"

	"orbit/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerAppender copies one transaction into the statement ledger.
	LedgerAppender interface {
		Append(ctx context.Context, userID string, tx core.Transaction) (rowRef string, err error)
	}
)
