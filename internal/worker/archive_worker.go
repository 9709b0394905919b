package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orbit/internal/amqp"
	"orbit/internal/sheets"
	"orbit/internal/storage"
)

// ArchiveWorker copies transactions from SQLite into the statement ledger.
// Messages carry identifiers only; the row is read fresh here so the
// ledger never sees a stale payload.
type ArchiveWorker struct {
	storage   *storage.SQLiteRepository
	ledger    sheets.LedgerAppender
	batchSize int
}

func NewArchiveWorker(storage *storage.SQLiteRepository, ledger sheets.LedgerAppender, batchSize int) *ArchiveWorker {
	return &ArchiveWorker{
		storage:   storage,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandleArchiveMessage processes one queued archive request. A transaction
// that no longer exists is treated as done, not retried.
func (w *ArchiveWorker) HandleArchiveMessage(ctx context.Context, msg *amqp.TransactionArchiveMessage) error {
	tx, err := w.storage.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction vanished before archiving, dropping message",
			"user_id", msg.UserID, "transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.archive(ctx, msg.UserID, tx.ID)
}

// StartupArchiveCheck pushes any transactions the ledger missed, covering
// messages lost while the worker was down.
func (w *ArchiveWorker) StartupArchiveCheck(ctx context.Context) error {
	pending, err := w.storage.ListUnarchived(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unarchived for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No unarchived transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found unarchived transactions on startup, processing",
		"count", len(pending))

	archived := 0
	failed := 0
	for _, p := range pending {
		if err := w.archive(ctx, p.UserID, p.TransactionID); err != nil {
			slog.ErrorContext(ctx, "Failed to archive during startup",
				"user_id", p.UserID, "transaction_id", p.TransactionID, "error", err)
			failed++
			continue
		}
		archived++
	}

	slog.InfoContext(ctx, "Startup archive check completed",
		"total", len(pending),
		"archived", archived,
		"errors", failed)
	return nil
}

// ProcessPending drains a single batch of unarchived transactions. Meant
// to run periodically as a backstop for lost messages.
func (w *ArchiveWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListUnarchived(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unarchived: %w", err)
	}
	for _, p := range pending {
		if err := w.archive(ctx, p.UserID, p.TransactionID); err != nil {
			slog.ErrorContext(ctx, "Failed to archive pending transaction",
				"user_id", p.UserID, "transaction_id", p.TransactionID, "error", err)
		}
	}
	return nil
}

func (w *ArchiveWorker) archive(ctx context.Context, userID, transactionID string) error {
	tx, err := w.storage.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.ledger.Append(ctx, userID, tx)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkArchived(ctx, userID, transactionID); err != nil {
		// The ledger write landed, so the message must not requeue.
		slog.ErrorContext(ctx, "Failed to mark transaction archived",
			"user_id", userID, "transaction_id", transactionID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction archived to ledger",
		"user_id", userID,
		"transaction_id", transactionID,
		"ledger_ref", ref)
	return nil
}
