package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-web/atelier/internal/shared"
)

type recorderStub struct {
	mu     sync.Mutex
	events []shared.SecurityEvent
}

func (s *recorderStub) Record(ctx context.Context, ev shared.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recorderStub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

type revocationStub struct {
	revoked map[string]bool
}

func (s *revocationStub) IsRevoked(ctx context.Context, tokenID string) bool {
	return s.revoked[tokenID]
}

func newTestGate(t *testing.T) (*Gate, *Signer, *recorderStub) {
	t.Helper()
	signer := NewSigner("gate-test-secret", time.Hour)
	events := &recorderStub{}
	return &Gate{
		Verifier: signer,
		Engine:   NewEngine(DefaultRules()),
		Events:   events,
	}, signer, events
}

func protectedServer(g *Gate, limiter *Limiter) http.Handler {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p != nil {
			w.Header().Set("X-Test-Principal", string(p.Role))
		}
		w.WriteHeader(http.StatusOK)
	})
	return Decorate(g.Protect(limiter)(handler))
}

func requestWithToken(method, path, token string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	r.Header.Set("X-Real-IP", "192.0.2.10")
	r.Header.Set("User-Agent", "gate-test")
	if token != "" {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	return r
}

func TestProtectAdmitsAuthorizedPrincipal(t *testing.T) {
	g, signer, _ := newTestGate(t)
	limiter := NewLimiter("api", LimiterConfig{Window: 15 * time.Minute, MaxRequests: 100, Message: "too many requests"}, nil)
	srv := protectedServer(g, limiter)

	token, _, err := signer.Issue(Principal{ID: 7, Role: RoleEditor})
	require.NoError(t, err)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/api/admin/posts", token))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "EDITOR", res.Header().Get("X-Test-Principal"))
	assert.Equal(t, "100", res.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", res.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	assert.NotEmpty(t, res.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, res.Header().Get("X-Response-Time"))
}

func TestProtectRejectsAnonymousAPI(t *testing.T) {
	g, _, events := newTestGate(t)
	srv := protectedServer(g, nil)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/api/admin/posts", ""))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, events.types(), EventInvalidToken)
}

func TestProtectRedirectsAnonymousUI(t *testing.T) {
	g, _, _ := newTestGate(t)
	srv := protectedServer(g, nil)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/admin/posts", ""))

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestProtectRejectsInsufficientPermission(t *testing.T) {
	g, signer, events := newTestGate(t)
	srv := protectedServer(g, nil)

	token, _, err := signer.Issue(Principal{ID: 3, Role: RoleEditor})
	require.NoError(t, err)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/api/admin/users", token))

	assert.Equal(t, http.StatusForbidden, res.Code)
	// The body never names the missing permission.
	assert.NotContains(t, res.Body.String(), "users.manage")
	assert.Contains(t, events.types(), EventAccessDenied)
}

func TestProtectRejectsInvalidToken(t *testing.T) {
	g, _, events := newTestGate(t)
	srv := protectedServer(g, nil)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/api/admin/posts", "not-a-token"))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	types := events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventInvalidToken, types[0])
}

func TestProtectRejectsRevokedToken(t *testing.T) {
	g, signer, _ := newTestGate(t)
	token, _, err := signer.Issue(Principal{ID: 9, Role: RoleAdmin})
	require.NoError(t, err)

	ident, err := signer.Verify(token)
	require.NoError(t, err)
	g.Revocations = &revocationStub{revoked: map[string]bool{ident.TokenID: true}}
	srv := protectedServer(g, nil)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("GET", "/api/admin/users", token))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProtectRateLimitRejection(t *testing.T) {
	g, signer, events := newTestGate(t)
	limiter := NewLimiter("auth", LimiterConfig{Window: 15 * time.Minute, MaxRequests: 2, Message: "too many login attempts"}, nil)
	srv := protectedServer(g, limiter)

	token, _, err := signer.Issue(Principal{ID: 1, Role: RoleSuperAdmin})
	require.NoError(t, err)

	var res *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		res = httptest.NewRecorder()
		srv.ServeHTTP(res, requestWithToken("POST", "/api/admin/users", token))
	}

	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "0", res.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	// Diagnostics are present on rejected traffic too.
	assert.NotEmpty(t, res.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, res.Header().Get("X-Response-Time"))
	assert.Contains(t, res.Body.String(), "too many login attempts")
	assert.Contains(t, res.Body.String(), "retryAfter")
	assert.Contains(t, events.types(), EventRateLimited)
}

func TestProtectOpenPathAdmitsAnonymous(t *testing.T) {
	g, _, _ := newTestGate(t)
	limiter := NewLimiter("contact", LimiterConfig{Window: time.Hour, MaxRequests: 3, Message: "contact limit"}, nil)
	srv := protectedServer(g, limiter)

	res := httptest.NewRecorder()
	srv.ServeHTTP(res, requestWithToken("POST", "/api/contact", ""))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "3", res.Header().Get("X-RateLimit-Limit"))
}

func TestRequirePermission(t *testing.T) {
	g, _, _ := newTestGate(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := g.Require(PermManageContacts)(next)

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest("GET", "/api/admin/contacts", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = httptest.NewRecorder()
	ctx := ContextWithPrincipal(context.Background(), &Principal{ID: 2, Role: RoleEditor})
	h.ServeHTTP(res, httptest.NewRequest("GET", "/api/admin/contacts", nil).WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = httptest.NewRecorder()
	ctx = ContextWithPrincipal(context.Background(), &Principal{ID: 2, Role: RoleAdmin})
	h.ServeHTTP(res, httptest.NewRequest("GET", "/api/admin/contacts", nil).WithContext(ctx))
	assert.Equal(t, http.StatusOK, res.Code)
}
