// Package sync mirrors the remote document store into process-local state.
// A Hub turns store changes into full-snapshot subscription streams, one
// per user; a Mirror consumes a stream and keeps the replica the dashboard
// projections read. Nothing here applies writes optimistically: a write
// becomes visible only when its snapshot comes back around.
package sync

import (
	"context"

	"orbit/internal/core"
)

// Ports the hub reads snapshots through.
type (
	ProfileReader interface {
		GetProfile(ctx context.Context, userID string) (core.UserProfile, error)
	}

	// TransactionLister returns the user's transactions in date-descending
	// order, the order every consumer displays them in.
	TransactionLister interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	GoalLister interface {
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	}

	// Snapshotter is the read surface of the document store.
	Snapshotter interface {
		ProfileReader
		TransactionLister
		GoalLister
	}
)

// Collection names one of the three mirrored document collections.
type Collection string

const (
	CollectionProfile      Collection = "profile"
	CollectionTransactions Collection = "transactions"
	CollectionGoals        Collection = "goals"
)

// Snapshot is one full-state delivery on a subscription stream. Only the
// field matching Collection is populated; streams carry replacements, not
// deltas.
type Snapshot struct {
	Collection   Collection
	Profile      core.UserProfile
	Transactions []core.Transaction
	Goals        []core.Goal
}
