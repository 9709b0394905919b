package http

import (
	"errors"
	"net/http"
	"time"

	"orbit/internal/core"
	"orbit/internal/service"
)

type createTransactionRequest struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date,omitempty"`
	IsSubscription bool    `json:"isSubscription,omitempty"`
}

type createTransactionResponse struct {
	Transaction transactionDTO `json:"transaction"`
	LimitAlert  bool           `json:"limitAlert"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	txs, err := s.storage.ListTransactions(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.ExpenseInput{
		Name:           sanitizeInput(req.Name),
		Category:       core.Category(req.Category),
		Amount:         moneyFromRupees(req.Amount),
		IsSubscription: req.IsSubscription,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		in.Date = date
	}

	tx, alert, err := s.wallet.AddExpense(r.Context(), userID, in)
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTransactionResponse{
		Transaction: toTransactionDTO(tx),
		LimitAlert:  alert,
	})
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request, userID string) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.wallet.TopUp(r.Context(), userID, moneyFromRupees(req.Amount))
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

type payRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request, userID string) {
	var req payRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, alert, err := s.wallet.Pay(r.Context(), userID, sanitizeInput(req.Name), moneyFromRupees(req.Amount))
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTransactionResponse{
		Transaction: toTransactionDTO(tx),
		LimitAlert:  alert,
	})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID string) {
	goals, err := s.storage.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toGoalDTOs(goals))
}

type createGoalRequest struct {
	Name   string  `json:"name"`
	Target float64 `json:"target"`
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req createGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	goal, err := s.wallet.AddGoal(r.Context(), userID, sanitizeInput(req.Name), moneyFromRupees(req.Target))
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(goal))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.wallet.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		writeWalletError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDepositToGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.wallet.DepositToGoal(r.Context(), userID, r.PathValue("id"), moneyFromRupees(req.Amount))
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request, userID string) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.wallet.SetMonthlyLimit(r.Context(), userID, moneyFromRupees(req.Amount)); err != nil {
		writeWalletError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type avatarRequest struct {
	AvatarID string `json:"avatarId"`
}

func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request, userID string) {
	var req avatarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.wallet.SetAvatar(r.Context(), userID, req.AvatarID); err != nil {
		writeWalletError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type freezeResponse struct {
	CardFrozen bool `json:"cardFrozen"`
}

func (s *Server) handleToggleFreeze(w http.ResponseWriter, r *http.Request, userID string) {
	frozen, err := s.wallet.ToggleCardFreeze(r.Context(), userID)
	if err != nil {
		writeWalletError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, freezeResponse{CardFrozen: frozen})
}

// writeWalletError maps service and validation failures onto statuses.
func writeWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCardFrozen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAmountNotPositive),
		errors.Is(err, service.ErrUnknownAvatar),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, core.ErrZeroDate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
