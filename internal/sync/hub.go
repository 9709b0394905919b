package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
)

// subscriberBuffer bounds each stream. Snapshots are full replacements, so
// when a slow consumer falls behind the oldest pending snapshot can be
// discarded without losing information.
const subscriberBuffer = 8

type subscriber struct {
	userID string
	ch     chan Snapshot
}

// Hub fans store changes out to per-user subscription streams. Each call to
// Notify re-reads the named collections from the store and broadcasts the
// fresh snapshots; there is no ordering guarantee between collections, only
// within one stream.
type Hub struct {
	store Snapshotter

	mu   stdsync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(store Snapshotter) *Hub {
	return &Hub{
		store: store,
		subs:  make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe opens a long-lived stream of full snapshots for one user. The
// current state of all three collections is delivered first, then every
// change until cancel is called or ctx ends. The channel is closed on
// teardown.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func()) {
	sub := &subscriber{
		userID: userID,
		ch:     make(chan Snapshot, subscriberBuffer),
	}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	// Seed with the current state so subscribers never start empty.
	for _, col := range []Collection{CollectionProfile, CollectionTransactions, CollectionGoals} {
		if snap, err := h.read(ctx, userID, col); err == nil {
			sub.deliver(snap)
		} else {
			slog.WarnContext(ctx, "Initial snapshot read failed",
				"user_id", userID, "collection", string(col), "error", err)
		}
	}

	var once stdsync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return sub.ch, cancel
}

// Notify re-reads the named collections and broadcasts fresh snapshots to
// every subscriber of userID. Callers invoke it after a successful write;
// failures are logged and swallowed because the write itself already
// happened and the next notification will catch the stream up.
func (h *Hub) Notify(ctx context.Context, userID string, collections ...Collection) {
	for _, col := range collections {
		snap, err := h.read(ctx, userID, col)
		if err != nil {
			slog.ErrorContext(ctx, "Snapshot read failed, skipping broadcast",
				"user_id", userID, "collection", string(col), "error", err)
			continue
		}

		h.mu.Lock()
		targets := make([]*subscriber, 0, len(h.subs[userID]))
		for sub := range h.subs[userID] {
			targets = append(targets, sub)
		}
		h.mu.Unlock()

		for _, sub := range targets {
			sub.deliver(snap)
		}
	}
}

// SubscriberCount reports how many streams are open for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) read(ctx context.Context, userID string, col Collection) (Snapshot, error) {
	snap := Snapshot{Collection: col}
	var err error
	switch col {
	case CollectionProfile:
		snap.Profile, err = h.store.GetProfile(ctx, userID)
	case CollectionTransactions:
		snap.Transactions, err = h.store.ListTransactions(ctx, userID)
	case CollectionGoals:
		snap.Goals, err = h.store.ListGoals(ctx, userID)
	}
	return snap, err
}

// deliver pushes a snapshot without ever blocking the hub. When the buffer
// is full the oldest pending snapshot is dropped first; the newest full
// state always wins.
func (s *subscriber) deliver(snap Snapshot) {
	defer func() {
		// A concurrent cancel may close the channel under us; a dropped
		// delivery to a closing stream is indistinguishable from teardown.
		_ = recover()
	}()
	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- snap:
		default:
		}
	}
}
