package http

import (
	"net/http"

	"orbit/internal/core"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := s.storage.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	d, err := s.wallet.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(d))
}

type avatarDTO struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji"`
	Tint  string `json:"tint"`
}

func handleAvatars(w http.ResponseWriter, _ *http.Request) {
	avatars := core.Avatars()
	out := make([]avatarDTO, len(avatars))
	for i, a := range avatars {
		out[i] = avatarDTO{ID: a.ID, Emoji: a.Emoji, Tint: a.Tint}
	}
	writeJSON(w, http.StatusOK, out)
}
