package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	syncpkg "orbit/internal/sync"
)

// handleStream serves a server-sent event stream of snapshot updates. Each
// store write produces a full replacement of the touched collection, so a
// client can rebuild its view from the latest event alone.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream, cancel := s.hub.Subscribe(r.Context(), userID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-stream:
			if !open {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				slog.ErrorContext(r.Context(), "SSE write failed, dropping stream",
					"error", err, "user_id", userID)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap syncpkg.Snapshot) error {
	payload, err := json.Marshal(snapshotPayload(snap))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", snap.Collection, payload)
	return err
}

func snapshotPayload(snap syncpkg.Snapshot) any {
	switch snap.Collection {
	case syncpkg.CollectionProfile:
		return toProfileDTO(snap.Profile)
	case syncpkg.CollectionTransactions:
		return toTransactionDTOs(snap.Transactions)
	case syncpkg.CollectionGoals:
		return toGoalDTOs(snap.Goals)
	default:
		return nil
	}
}
