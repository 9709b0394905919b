package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"orbit/internal/export"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	profile, err := s.storage.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	txs, err := s.storage.ListTransactions(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename("csv", now)))
		if err := export.WriteCSV(w, txs); err != nil {
			slog.ErrorContext(r.Context(), "CSV export failed", "error", err, "user_id", userID)
		}
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename("pdf", now)))
		if err := export.StatementPDF(w, profile, txs, now); err != nil {
			slog.ErrorContext(r.Context(), "PDF export failed", "error", err, "user_id", userID)
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown format, want csv or pdf")
	}
}
