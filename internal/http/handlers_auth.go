package http

import (
	"errors"
	"net/http"

	"orbit/internal/auth"
	"orbit/internal/core"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string     `json:"token"`
	Profile profileDTO `json:"profile"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := s.auth.SignUp(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusCreated, authResponse{Token: token, Profile: toProfileDTO(profile)})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := s.auth.SignIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: toProfileDTO(profile)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ string) {
	if err := s.auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
