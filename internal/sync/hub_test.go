package sync

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/core"
)

// fakeStore is an in-memory Snapshotter.
type fakeStore struct {
	mu           stdsync.Mutex
	profile      core.UserProfile
	transactions []core.Transaction
	goals        []core.Goal
}

func (f *fakeStore) GetProfile(_ context.Context, _ string) (core.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, _ string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Transaction(nil), f.transactions...), nil
}

func (f *fakeStore) ListGoals(_ context.Context, _ string) ([]core.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Goal(nil), f.goals...), nil
}

func (f *fakeStore) setBalance(m core.Money) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile.Balance = m
}

func (f *fakeStore) addTransaction(t core.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append([]core.Transaction{t}, f.transactions...)
}

func collect(t *testing.T, ch <-chan Snapshot, n int) []Snapshot {
	t.Helper()
	out := make([]Snapshot, 0, n)
	for len(out) < n {
		select {
		case snap := <-ch:
			out = append(out, snap)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d snapshots", len(out), n)
		}
	}
	return out
}

func TestSubscribeSeedsAllCollections(t *testing.T) {
	store := &fakeStore{profile: core.UserProfile{ID: "u1", Name: "Asha", Email: "a@b.c"}}
	hub := NewHub(store)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	defer cancel()

	seen := make(map[Collection]bool)
	for _, snap := range collect(t, ch, 3) {
		seen[snap.Collection] = true
		if snap.Collection == CollectionProfile {
			assert.Equal(t, "Asha", snap.Profile.Name)
		}
	}
	assert.Len(t, seen, 3, "profile, transactions and goals all seeded")
}

func TestNotifyDeliversFreshSnapshot(t *testing.T) {
	store := &fakeStore{profile: core.UserProfile{ID: "u1"}}
	hub := NewHub(store)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	defer cancel()
	collect(t, ch, 3) // drain the seed

	store.setBalance(core.RupeesFromInt(750))
	hub.Notify(context.Background(), "u1", CollectionProfile)

	snap := collect(t, ch, 1)[0]
	require.Equal(t, CollectionProfile, snap.Collection)
	assert.Equal(t, int64(75000), snap.Profile.Balance.Paise)
}

func TestNotifyIsScopedToUser(t *testing.T) {
	store := &fakeStore{}
	hub := NewHub(store)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	defer cancel()
	collect(t, ch, 3)

	hub.Notify(context.Background(), "someone-else", CollectionProfile)

	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot %v for another user", snap.Collection)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelTearsDownStream(t *testing.T) {
	store := &fakeStore{}
	hub := NewHub(store)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	collect(t, ch, 3)
	require.Equal(t, 1, hub.SubscriberCount("u1"))

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount("u1"))

	// The channel closes; a closed stream reads as !ok, not a hang.
	_, ok := <-ch
	assert.False(t, ok)

	// Cancel is idempotent.
	cancel()
}

func TestSlowSubscriberDoesNotBlockNotify(t *testing.T) {
	store := &fakeStore{}
	hub := NewHub(store)

	ch, cancel := hub.Subscribe(context.Background(), "u1")
	defer cancel()
	// Never read: overflow the buffer several times over.
	for i := 0; i < subscriberBuffer*3; i++ {
		store.addTransaction(core.Transaction{ID: "t", Name: "t", Category: core.CategoryFood,
			Amount: "-₹1", Date: time.Now()})
		hub.Notify(context.Background(), "u1", CollectionTransactions)
	}

	// Old snapshots were dropped; the last buffered one is the newest state.
	var last Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	require.Equal(t, CollectionTransactions, last.Collection)
	assert.Len(t, last.Transactions, subscriberBuffer*3)
}

func TestMirrorAppliesSnapshots(t *testing.T) {
	m := NewMirror()
	var changed []Collection
	m.OnChange(func(c Collection) { changed = append(changed, c) })

	m.Apply(Snapshot{Collection: CollectionProfile, Profile: core.UserProfile{ID: "u1", Name: "Asha"}})
	m.Apply(Snapshot{Collection: CollectionGoals, Goals: []core.Goal{{ID: "g1", Name: "Car"}}})
	m.Apply(Snapshot{Collection: CollectionTransactions, Transactions: []core.Transaction{{ID: "t1", Name: "Lunch"}}})

	assert.Equal(t, "Asha", m.Profile().Name)
	assert.Len(t, m.Goals(), 1)
	assert.Len(t, m.Transactions(), 1)
	assert.Equal(t, []Collection{CollectionProfile, CollectionGoals, CollectionTransactions}, changed)

	tx, ok := m.TransactionByID("t1")
	require.True(t, ok)
	assert.Equal(t, "Lunch", tx.Name)

	_, ok = m.GoalByID("missing")
	assert.False(t, ok)
}

func TestMirrorRunStopsWhenStreamCloses(t *testing.T) {
	m := NewMirror()
	stream := make(chan Snapshot, 1)
	stream <- Snapshot{Collection: CollectionProfile, Profile: core.UserProfile{Name: "A"}}
	close(stream)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background(), stream)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on closed stream")
	}
	assert.Equal(t, "A", m.Profile().Name)
}
