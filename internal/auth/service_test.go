package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/shared"
)

type memoryAuthRepo struct {
	users   map[string]*User
	logins  []string
	logouts []string
}

func newMemoryAuthRepo() *memoryAuthRepo {
	return &memoryAuthRepo{users: make(map[string]*User)}
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryAuthRepo) RecordLogin(ctx context.Context, tokenID string, userID int64, expiresAt time.Time, ip, ua string) error {
	r.logins = append(r.logins, tokenID)
	return nil
}

func (r *memoryAuthRepo) RecordLogout(ctx context.Context, tokenID string) error {
	r.logouts = append(r.logouts, tokenID)
	return nil
}

func addUser(t *testing.T, repo *memoryAuthRepo, email, password string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[email] = &User{
		ID:            1,
		Email:         email,
		Name:          "Owner",
		PasswordHash:  string(hash),
		Role:          gate.RoleAdmin,
		EmailVerified: true,
		IsActive:      active,
	}
}

func newAuthFixture(t *testing.T) (*Service, *memoryAuthRepo, *RevocationList) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryAuthRepo()
	signer := gate.NewSigner("0123456789abcdef0123456789abcdef", time.Hour)
	revocations := NewRevocationList(client)
	return NewService(repo, signer, revocations, slog.Default()), repo, revocations
}

func TestLoginIssuesToken(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	addUser(t, repo, "owner@example.com", "swordfish-twelve", true)

	token, ident, err := svc.Login(context.Background(), "owner@example.com", "swordfish-twelve", "203.0.113.9", "curl")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(1), ident.Principal.ID)
	require.Equal(t, gate.RoleAdmin, ident.Principal.Role)
	require.Equal(t, []string{ident.TokenID}, repo.logins)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	addUser(t, repo, "owner@example.com", "swordfish-twelve", true)

	_, _, err := svc.Login(context.Background(), "owner@example.com", "wrong", "", "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginRejectsUnknownAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever", "", "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	addUser(t, repo, "owner@example.com", "swordfish-twelve", false)

	_, _, err := svc.Login(context.Background(), "owner@example.com", "swordfish-twelve", "", "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, repo, revocations := newAuthFixture(t)
	addUser(t, repo, "owner@example.com", "swordfish-twelve", true)

	token, ident, err := svc.Login(context.Background(), "owner@example.com", "swordfish-twelve", "", "")
	require.NoError(t, err)
	require.False(t, revocations.IsRevoked(context.Background(), ident.TokenID))

	svc.Logout(context.Background(), token)
	require.True(t, revocations.IsRevoked(context.Background(), ident.TokenID))
	require.Equal(t, []string{ident.TokenID}, repo.logouts)
}

func TestLogoutIgnoresGarbageToken(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	svc.Logout(context.Background(), "not-a-token")
	require.Empty(t, repo.logouts)
}
