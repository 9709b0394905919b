package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"orbit/internal/auth"
	"orbit/internal/cache"
	"orbit/internal/config"
	"orbit/internal/service"
	"orbit/internal/storage"
	syncpkg "orbit/internal/sync"
	"orbit/internal/tui"
)

func main() {
	_ = godotenv.Load()

	// The terminal owns stdout, logs go to a file if asked for.
	logOut := os.Stderr
	if path := os.Getenv("ORBIT_TUI_LOG"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logOut = f
			defer f.Close()
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	email := os.Getenv("ORBIT_EMAIL")
	password := os.Getenv("ORBIT_PASSWORD")
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "set ORBIT_EMAIL and ORBIT_PASSWORD to sign in")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hub := syncpkg.NewHub(repo)
	wallet := service.NewWalletService(repo, nil, hub,
		cache.NewLRU[service.Dashboard](cfg.CacheSize, cfg.CacheTTL))
	authSvc := auth.NewService(repo, cfg.SessionTTL)

	userID, err := signIn(authSvc, email, password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign in failed:", err)
		os.Exit(1)
	}

	m := tui.New(wallet, hub, userID)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui error:", err)
		os.Exit(1)
	}
}

// signIn authenticates against the local store, registering the account on
// first use.
func signIn(authSvc *auth.Service, email, password string) (string, error) {
	ctx := context.Background()

	profile, _, err := authSvc.SignIn(ctx, email, password)
	if err == nil {
		return profile.ID, nil
	}
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		return "", err
	}

	name := os.Getenv("ORBIT_NAME")
	if name == "" {
		name = "Orbit User"
	}
	profile, _, err = authSvc.SignUp(ctx, name, email, password)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}
