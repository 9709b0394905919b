package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"orbit/internal/core"
	"orbit/internal/storage"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrUnauthorized       = errors.New("unauthorized")
)

// Store is the account and session persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, p core.UserProfile, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error)
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Service handles email and password sign up, sign in and session
// resolution. Tokens are opaque and carried by the client as a bearer
// credential.
type Service struct {
	store      Store
	sessionTTL time.Duration
}

func NewService(store Store, sessionTTL time.Duration) *Service {
	return &Service{store: store, sessionTTL: sessionTTL}
}

// SignUp creates an account with a zero balance in INR and opens a session.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (core.UserProfile, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(password) < minPasswordLength {
		return core.UserProfile{}, "", ErrWeakPassword
	}

	profile := core.UserProfile{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Balance:  core.Money{},
		Currency: "INR",
		AvatarID: "default",
	}
	if err := profile.Validate(); err != nil {
		return core.UserProfile{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.CreateUser(ctx, profile, string(hash)); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return core.UserProfile{}, "", ErrEmailInUse
		}
		return core.UserProfile{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.openSession(ctx, profile.ID)
	if err != nil {
		return core.UserProfile{}, "", err
	}
	return profile, token, nil
}

// SignIn verifies the password and opens a session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (core.UserProfile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, hash, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return core.UserProfile{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.UserProfile{}, "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return core.UserProfile{}, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, profile.ID)
	if err != nil {
		return core.UserProfile{}, "", err
	}
	return profile, token, nil
}

// SignOut discards the session. Unknown tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to a user ID.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrSessionExpired) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

func (s *Service) openSession(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.store.CreateSession(ctx, token, userID, time.Now().Add(s.sessionTTL)); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return token, nil
}
