package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	token, issued, err := signer.Issue(Principal{ID: 42, Role: RoleEditor, EmailVerified: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	ident, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ident.Principal.ID)
	assert.Equal(t, RoleEditor, ident.Principal.Role)
	assert.True(t, ident.Principal.EmailVerified)
	assert.NotEmpty(t, ident.TokenID)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	token, _, err := signer.Issue(Principal{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	_, err = signer.Verify(token + "x")
	assert.Error(t, err)

	other := NewSigner("different-secret", time.Hour)
	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestSignerRejectsExpired(t *testing.T) {
	signer := NewSigner("test-secret", -time.Minute)
	token, _, err := signer.Issue(Principal{ID: 1, Role: RoleAdmin})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.Error(t, err)
}

func TestSignerRejectsUnknownRole(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	token, _, err := signer.Issue(Principal{ID: 1, Role: Role("WIZARD")})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, errUnknownRole)
}

func TestSessionTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, SessionTokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", SessionTokenFromRequest(r))

	// The cookie takes precedence over the header.
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", SessionTokenFromRequest(r))
}
