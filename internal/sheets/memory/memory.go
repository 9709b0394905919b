package memory

import (
	"context"
	"fmt"
	"sync"

	"orbit/internal/core"
	ports "orbit/internal/sheets"
)

// Ledger is an in-memory LedgerAppender for development and tests.
type Ledger struct {
	mu   sync.Mutex
	rows []Row
}

type Row struct {
	UserID      string
	Transaction core.Transaction
}

var _ ports.LedgerAppender = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(_ context.Context, userID string, tx core.Transaction) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, Row{UserID: userID, Transaction: tx})
	return fmt.Sprintf("row-%d", len(l.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}
