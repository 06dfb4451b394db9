package gate

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "atelier_session"

var errUnknownRole = errors.New("gate: unknown role in token")

// SessionClaims is the JWT payload for a logged in user.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Identity pairs a verified principal with its token metadata.
type Identity struct {
	Principal Principal
	TokenID   string
	ExpiresAt time.Time
}

// TokenVerifier validates a signed session token.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// RevocationChecker reports whether a token was revoked out of band
// (logout, forced sign-out). Consulted after signature verification.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a Signer.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured token lifetime.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a fresh token for the principal and returns it together
// with the identity it encodes.
func (s *Signer) Issue(p Principal) (string, *Identity, error) {
	now := time.Now()
	expires := now.Add(s.ttl)
	tokenID := uuid.NewString()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role:          string(p.Role),
		EmailVerified: p.EmailVerified,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, &Identity{Principal: p, TokenID: tokenID, ExpiresAt: expires}, nil
}

// Verify parses and validates a token. Any failure, expiry included,
// returns an error; no partial principal ever escapes.
func (s *Signer) Verify(raw string) (*Identity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, err
	}
	role := Role(claims.Role)
	if !role.Known() {
		return nil, errUnknownRole
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return &Identity{
		Principal: Principal{ID: id, Role: role, EmailVerified: claims.EmailVerified},
		TokenID:   claims.ID,
		ExpiresAt: expires,
	}, nil
}

// SessionTokenFromRequest extracts the raw token from the session
// cookie or an Authorization bearer header. Empty when absent.
func SessionTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

var _ TokenVerifier = (*Signer)(nil)
