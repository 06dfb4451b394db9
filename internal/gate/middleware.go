package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atelier-web/atelier/internal/platform/httpx"
	"github.com/atelier-web/atelier/internal/shared"
)

// Observer receives counters for gate rejections.
type Observer interface {
	ObserveRateLimited(limiter string)
	ObserveAccessDenied()
}

// Gate composes identity resolution, rate limiting and access decisions
// into one middleware pipeline.
type Gate struct {
	Verifier    TokenVerifier
	Revocations RevocationChecker
	Engine      *Engine
	Events      SecurityRecorder
	Metrics     Observer
	Logger      *slog.Logger

	// LoginURL and UnauthorizedURL are redirect targets for denied UI
	// requests. API paths get problem responses instead.
	LoginURL        string
	UnauthorizedURL string
}

// Protect runs the pipeline with the given limiter: resolve identity,
// check the counter, authorize the path, then hand off. Every rejection
// terminates here; no protected handler sees a failed request.
func (g *Gate) Protect(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var principal *Principal
			tokenInvalid := false
			if raw := SessionTokenFromRequest(r); raw != "" {
				ident, err := g.Verifier.Verify(raw)
				switch {
				case err != nil:
					tokenInvalid = true
				case g.Revocations != nil && g.Revocations.IsRevoked(ctx, ident.TokenID):
					tokenInvalid = true
				default:
					principal = &ident.Principal
				}
			}
			if tokenInvalid {
				g.record(ctx, r, nil, EventInvalidToken, nil)
			}

			if limiter != nil {
				res := limiter.Check(r, "")
				writeRateHeaders(w, res)
				if !res.Success {
					if g.Metrics != nil {
						g.Metrics.ObserveRateLimited(limiter.Name())
					}
					g.record(ctx, r, principal, EventRateLimited, map[string]any{"limit": res.Limit})
					httpx.JSON(w, http.StatusTooManyRequests, map[string]any{
						"error":      limiter.Message(),
						"retryAfter": res.ResetTime.UTC().Format(time.RFC3339),
					})
					return
				}
			}

			switch g.Engine.Authorize(principal, r.URL.Path) {
			case DecisionUnauthenticated:
				if !tokenInvalid {
					g.record(ctx, r, nil, EventInvalidToken, nil)
				}
				if isAPIPath(r.URL.Path) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				} else {
					http.Redirect(w, r, g.loginURL(), http.StatusSeeOther)
				}
				return
			case DecisionUnauthorized:
				// The event and the response carry no permission detail.
				if g.Metrics != nil {
					g.Metrics.ObserveAccessDenied()
				}
				g.record(ctx, r, principal, EventAccessDenied, nil)
				if isAPIPath(r.URL.Path) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				} else {
					http.Redirect(w, r, g.unauthorizedURL(), http.StatusSeeOther)
				}
				return
			}

			if principal != nil {
				ctx = ContextWithPrincipal(ctx, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require enforces a single permission at route level, mirroring the
// path rules for defense in depth inside module routers.
func (g *Gate) Require(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if !g.Engine.HasPermission(p.Role, perm) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) loginURL() string {
	if g.LoginURL != "" {
		return g.LoginURL
	}
	return "/auth/login"
}

func (g *Gate) unauthorizedURL() string {
	if g.UnauthorizedURL != "" {
		return g.UnauthorizedURL
	}
	return "/unauthorized"
}

func (g *Gate) record(ctx context.Context, r *http.Request, p *Principal, eventType string, details map[string]any) {
	if g.Events == nil {
		return
	}
	ev := shared.SecurityEvent{
		Type:      eventType,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
		Method:    r.Method,
		Details:   details,
	}
	if p != nil {
		ev.UserID = p.ID
	}
	if err := g.Events.Record(ctx, ev); err != nil && g.Logger != nil {
		g.Logger.Warn("record gate event", slog.String("type", eventType), slog.Any("error", err))
	}
}

func writeRateHeaders(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}
