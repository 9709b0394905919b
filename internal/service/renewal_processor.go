package service

import (
	"context"
	"log/slog"
	"time"

	"orbit/internal/core"
	"orbit/internal/storage"
)

// RenewalProcessor re-bills subscription charges whose next billing moment
// has passed. Renewals go through the wallet so balances, summaries and
// snapshot subscribers all see them the same way a manual expense lands.
type RenewalProcessor struct {
	storage   *storage.SQLiteRepository
	wallet    *WalletService
	batchSize int
}

func NewRenewalProcessor(storage *storage.SQLiteRepository, wallet *WalletService, batchSize int) *RenewalProcessor {
	return &RenewalProcessor{
		storage:   storage,
		wallet:    wallet,
		batchSize: batchSize,
	}
}

// ProcessDueSubscriptions renews one batch of overdue subscriptions. Each
// renewal writes a fresh charge carrying the next billing moment and then
// retires the old row from the scan, so a crash between the two steps
// re-runs the renewal rather than losing it.
func (p *RenewalProcessor) ProcessDueSubscriptions(ctx context.Context, now time.Time) error {
	due, err := p.storage.ListDueSubscriptions(ctx, now, p.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing due subscriptions", "count", len(due))

	renewed, failed := 0, 0
	for _, d := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		amount, err := core.ParseAmount(d.Transaction.Amount)
		if err != nil {
			// An unparseable amount would fail on every pass. Retire the
			// row instead of re-scanning it forever.
			slog.ErrorContext(ctx, "Subscription has malformed amount, retiring it",
				"transaction_id", d.Transaction.ID,
				"user_id", d.UserID,
				"amount", d.Transaction.Amount)
			if err := p.storage.ClearNextBillingDate(ctx, d.UserID, d.Transaction.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to retire subscription", "error", err,
					"transaction_id", d.Transaction.ID)
			}
			failed++
			continue
		}

		_, _, err = p.wallet.AddExpense(ctx, d.UserID, ExpenseInput{
			Name:           d.Transaction.Name,
			Category:       d.Transaction.Category,
			Amount:         amount.Abs(),
			Date:           now,
			IsSubscription: true,
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to renew subscription", "error", err,
				"transaction_id", d.Transaction.ID,
				"user_id", d.UserID)
			failed++
			continue
		}

		if err := p.storage.ClearNextBillingDate(ctx, d.UserID, d.Transaction.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to retire renewed subscription", "error", err,
				"transaction_id", d.Transaction.ID)
		}
		renewed++
	}

	slog.InfoContext(ctx, "Subscription renewal pass complete",
		"renewed", renewed,
		"failed", failed)
	return nil
}
