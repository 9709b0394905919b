package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/auth"
	"orbit/internal/cache"
	"orbit/internal/service"
	"orbit/internal/storage"
	syncpkg "orbit/internal/sync"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	hub := syncpkg.NewHub(repo)
	wallet := service.NewWalletService(repo, nil, hub, cache.NewLRU[service.Dashboard](16, time.Minute))
	authSvc := auth.NewService(repo, time.Hour)

	srv := NewServer(":0", authSvc, wallet, repo, hub)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Asha Rao", "email": "asha@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignUpLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Other", "email": "asha@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/logout", resp.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/dashboard", "/api/transactions", "/api/goals", "/api/export"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard", "no-such-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/topup", token, map[string]any{"amount": 5000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "Groceries", "category": "Food", "amount": 450.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Transaction struct {
			Name   string `json:"name"`
			Amount string `json:"amount"`
			Color  string `json:"color"`
		} `json:"transaction"`
		LimitAlert bool `json:"limitAlert"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "Groceries", created.Transaction.Name)
	assert.Equal(t, "-₹450.50", created.Transaction.Amount)
	assert.Equal(t, "bg-orange-500", created.Transaction.Color)
	assert.False(t, created.LimitAlert)

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 2)
	names := []string{list[0]["name"].(string), list[1]["name"].(string)}
	assert.ElementsMatch(t, []string{"Groceries", "Wallet Top Up"}, names)
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "X", "category": "NotACategory", "amount": 100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "X", "category": "Food", "amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "X", "category": "Food", "amount": 100, "date": "31-01-2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayRespectsFrozenCard(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/card/freeze", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var frozen freezeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&frozen))
	assert.True(t, frozen.CardFrozen)

	rec = doJSON(t, srv, http.MethodPost, "/api/pay", token, map[string]any{
		"name": "Coffee", "amount": 120,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/card/freeze", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/pay", token, map[string]any{
		"name": "Coffee", "amount": 120,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGoalLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/goals", token, map[string]any{
		"name": "New Laptop", "target": 1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal struct {
		ID      string  `json:"id"`
		Percent float64 `json:"percent"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&goal))
	require.NotEmpty(t, goal.ID)
	assert.Zero(t, goal.Percent)

	rec = doJSON(t, srv, http.MethodPost, "/api/goals/"+goal.ID+"/deposit", token, map[string]any{"amount": 250})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var goals []struct {
		Percent float64 `json:"percent"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&goals))
	require.Len(t, goals, 1)
	assert.InDelta(t, 25, goals[0].Percent, 0.01)

	rec = doJSON(t, srv, http.MethodPost, "/api/goals/missing/deposit", token, map[string]any{"amount": 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileSettings(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPut, "/api/profile/limit", token, map[string]any{"amount": 15000})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/profile/avatar", token, map[string]string{"avatarId": "ninja"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/profile/avatar", token, map[string]string{"avatarId": "dragon-king"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		AvatarID     string  `json:"avatarId"`
		AvatarEmoji  string  `json:"avatarEmoji"`
		MonthlyLimit float64 `json:"monthlyLimit"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "ninja", me.AvatarID)
	assert.Equal(t, "🥷", me.AvatarEmoji)
	assert.InDelta(t, 15000, me.MonthlyLimit, 0.01)
}

func TestDashboardAggregates(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	doJSON(t, srv, http.MethodPost, "/api/topup", token, map[string]any{"amount": 10000})
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "Train", "category": "Transport", "amount": 300,
	})
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "Dosa", "category": "Food", "amount": 150,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		TotalSpent  float64 `json:"totalSpent"`
		TotalIncome float64 `json:"totalIncome"`
		TopCategory *struct {
			Category string `json:"category"`
		} `json:"topCategory"`
		WeeklySpend []struct {
			Day    string  `json:"day"`
			Amount float64 `json:"amount"`
		} `json:"weeklySpend"`
		Categories []struct {
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
		} `json:"categories"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dash))
	assert.InDelta(t, 450, dash.TotalSpent, 0.01)
	assert.InDelta(t, 10000, dash.TotalIncome, 0.01)
	require.NotNil(t, dash.TopCategory)
	assert.Equal(t, "Transport", dash.TopCategory.Category)
	assert.Len(t, dash.WeeklySpend, 7)
	// Category rows come in display order, Food ahead of Transport.
	require.Len(t, dash.Categories, 2)
	assert.Equal(t, "Food", dash.Categories[0].Category)
	assert.InDelta(t, 150, dash.Categories[0].Amount, 0.01)
}

func TestExportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"name": "Groceries", "category": "Food", "amount": 200,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Orbit_Statement_")
	assert.Contains(t, rec.Body.String(), "Groceries")
	assert.NotContains(t, rec.Body.String(), "₹")

	rec = doJSON(t, srv, http.MethodGet, "/api/export?format=pdf", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = doJSON(t, srv, http.MethodGet, "/api/export?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamDeliversSeedSnapshots(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	real := httptest.NewServer(srv.Server.Handler)
	defer real.Close()

	// EventSource clients cannot set headers, so the token rides the query.
	resp, err := http.Get(fmt.Sprintf("%s/api/stream?token=%s", real.URL, token))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	seen := map[string]bool{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(seen) < 3 {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			seen[name] = true
		}
	}
	assert.True(t, seen["profile"])
	assert.True(t, seen["transactions"])
	assert.True(t, seen["goals"])
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/topup", token, map[string]any{
		"amount": 100, "bonus": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
