package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"orbit/internal/auth"
	"orbit/internal/middleware/ratelimit"
	"orbit/internal/middleware/security"
	"orbit/internal/middleware/trace"
	"orbit/internal/service"
	"orbit/internal/storage"
	syncpkg "orbit/internal/sync"
)

// Server is the JSON API in front of the wallet service and the snapshot
// hub. Write endpoints are rate limited per client IP.
type Server struct {
	http.Server

	auth    *auth.Service
	wallet  *service.WalletService
	storage *storage.SQLiteRepository
	hub     *syncpkg.Hub

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

func NewServer(addr string, authSvc *auth.Service, wallet *service.WalletService, repo *storage.SQLiteRepository, hub *syncpkg.Hub) *Server {
	mux := http.NewServeMux()

	s := &Server{
		auth:    authSvc,
		wallet:  wallet,
		storage: repo,
		hub:     hub,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.limited(s.handleSignUp))
	mux.HandleFunc("POST /api/auth/login", s.limited(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.withAuth(s.handleLogout))

	mux.HandleFunc("GET /api/me", s.withAuth(s.handleMe))
	mux.HandleFunc("GET /api/dashboard", s.withAuth(s.handleDashboard))
	mux.HandleFunc("GET /api/avatars", handleAvatars)

	mux.HandleFunc("GET /api/transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.limited(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("POST /api/topup", s.limited(s.withAuth(s.handleTopUp)))
	mux.HandleFunc("POST /api/pay", s.limited(s.withAuth(s.handlePay)))

	mux.HandleFunc("GET /api/goals", s.withAuth(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.limited(s.withAuth(s.handleCreateGoal)))
	mux.HandleFunc("DELETE /api/goals/{id}", s.limited(s.withAuth(s.handleDeleteGoal)))
	mux.HandleFunc("POST /api/goals/{id}/deposit", s.limited(s.withAuth(s.handleDepositToGoal)))

	mux.HandleFunc("PUT /api/profile/limit", s.limited(s.withAuth(s.handleSetLimit)))
	mux.HandleFunc("PUT /api/profile/avatar", s.limited(s.withAuth(s.handleSetAvatar)))
	mux.HandleFunc("POST /api/card/freeze", s.limited(s.withAuth(s.handleToggleFreeze)))

	mux.HandleFunc("GET /api/export", s.withAuth(s.handleExport))
	mux.HandleFunc("GET /api/stream", s.withAuth(s.handleStream))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(security.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           headers.Middleware(tracer.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the listener and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// limited applies the per-IP write budget to one handler.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	wrapped := s.limiter.Middleware(security.ExtractClientIP)(next)
	return wrapped.ServeHTTP
}

// withAuth resolves the bearer token and passes the user ID on in the
// request context. EventSource cannot set headers, so a token query
// parameter is accepted as well.
func (s *Server) withAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		userID, err := s.auth.Authenticate(r.Context(), token)
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next(w, r, userID)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
