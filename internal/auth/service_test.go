package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/core"
	"orbit/internal/storage"
)

type memStore struct {
	users    map[string]core.UserProfile // by email
	hashes   map[string]string
	sessions map[string]string // token -> user ID
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]core.UserProfile),
		hashes:   make(map[string]string),
		sessions: make(map[string]string),
	}
}

func (m *memStore) CreateUser(_ context.Context, p core.UserProfile, hash string) error {
	if _, ok := m.users[p.Email]; ok {
		return storage.ErrDuplicateEmail
	}
	m.users[p.Email] = p
	m.hashes[p.Email] = hash
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (core.UserProfile, string, error) {
	p, ok := m.users[email]
	if !ok {
		return core.UserProfile{}, "", storage.ErrNotFound
	}
	return p, m.hashes[email], nil
}

func (m *memStore) CreateSession(_ context.Context, token, userID string, _ time.Time) error {
	m.sessions[token] = userID
	return nil
}

func (m *memStore) GetSession(_ context.Context, token string) (string, error) {
	userID, ok := m.sessions[token]
	if !ok {
		return "", storage.ErrNotFound
	}
	return userID, nil
}

func (m *memStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func TestSignUpSeedsProfile(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)

	profile, token, err := svc.SignUp(context.Background(), "Asha Rao", "Asha@Example.com ", "secret12")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@example.com", profile.Email)
	assert.Equal(t, int64(0), profile.Balance.Paise)
	assert.Equal(t, "INR", profile.Currency)
	assert.Equal(t, "default", profile.AvatarID)
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)

	_, _, err := svc.SignUp(context.Background(), "Asha", "asha@example.com", "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "Asha", "asha@example.com", "secret12")
	require.NoError(t, err)

	_, _, err = svc.SignUp(ctx, "Impostor", "asha@example.com", "secret12")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignInVerifiesPassword(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "Asha", "asha@example.com", "secret12")
	require.NoError(t, err)

	profile, token, err := svc.SignIn(ctx, "asha@example.com", "secret12")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Asha", profile.Name)

	_, _, err = svc.SignIn(ctx, "asha@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "nobody@example.com", "secret12")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAndSignOut(t *testing.T) {
	svc := NewService(newMemStore(), time.Hour)
	ctx := context.Background()

	profile, token, err := svc.SignUp(ctx, "Asha", "asha@example.com", "secret12")
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, userID)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.SignOut(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
