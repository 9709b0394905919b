package sync

import (
	"context"
	stdsync "sync"

	"orbit/internal/core"
)

// Mirror holds the process-local replica of one user's three collections.
// Its only writer is the subscription stream it runs on; everything else
// reads. Transient disagreement between collections (balance moved but
// the transaction row not yet visible) is expected and must be tolerated.
type Mirror struct {
	mu           stdsync.RWMutex
	profile      core.UserProfile
	transactions []core.Transaction
	goals        []core.Goal

	onChange func(Collection)
}

func NewMirror() *Mirror {
	return &Mirror{}
}

// OnChange registers a callback fired after each applied snapshot, with the
// mirror already updated. Must be set before Run starts.
func (m *Mirror) OnChange(fn func(Collection)) {
	m.onChange = fn
}

// Run applies snapshots until the stream closes or ctx ends.
func (m *Mirror) Run(ctx context.Context, stream <-chan Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-stream:
			if !ok {
				return
			}
			m.Apply(snap)
		}
	}
}

// Apply replaces the mirrored collection named by the snapshot.
func (m *Mirror) Apply(snap Snapshot) {
	m.mu.Lock()
	switch snap.Collection {
	case CollectionProfile:
		m.profile = snap.Profile
	case CollectionTransactions:
		m.transactions = snap.Transactions
	case CollectionGoals:
		m.goals = snap.Goals
	}
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(snap.Collection)
	}
}

// Profile returns the mirrored profile document.
func (m *Mirror) Profile() core.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// Transactions returns a copy of the mirrored list, date-descending.
func (m *Mirror) Transactions() []core.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// Goals returns a copy of the mirrored goal list.
func (m *Mirror) Goals() []core.Goal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Goal, len(m.goals))
	copy(out, m.goals)
	return out
}

// TransactionByID looks a transaction up in the mirror, for receipt views.
func (m *Mirror) TransactionByID(id string) (core.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// GoalByID looks a goal up in the mirror, for deposit views.
func (m *Mirror) GoalByID(id string) (core.Goal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.Goal{}, false
}
