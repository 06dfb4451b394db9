package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/atelier-web/atelier/internal/analytics"
	"github.com/atelier-web/atelier/internal/auth"
	"github.com/atelier-web/atelier/internal/contacts"
	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/media"
	"github.com/atelier-web/atelier/internal/offerings"
	"github.com/atelier-web/atelier/internal/platform/cache"
	"github.com/atelier-web/atelier/internal/posts"
	"github.com/atelier-web/atelier/internal/projects"
	"github.com/atelier-web/atelier/internal/seo"
	"github.com/atelier-web/atelier/internal/users"
	"github.com/atelier-web/atelier/internal/view"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.Default()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	contentCache := cache.NewContent(nil, 0)

	signer := gate.NewSigner("0123456789abcdef0123456789abcdef", time.Hour)
	requestGate := &gate.Gate{
		Verifier: signer,
		Engine:   gate.NewEngine(gate.DefaultRules()),
		Logger:   logger,
	}

	params := RouterParams{
		Logger:    logger,
		Config:    &Config{AppBaseURL: "http://localhost:8080", AppRequestTimeout: 5 * time.Second},
		Templates: templates,

		Gate:     requestGate,
		Limiters: gate.NewLimiters(gate.NewCounterStore()),

		AuthHandler:      auth.NewHandler(logger, auth.NewService(nil, signer, nil, logger), templates, nil, false),
		PostsHandler:     posts.NewHandler(logger, posts.NewService(nil, contentCache, logger)),
		ProjectsHandler:  projects.NewHandler(logger, projects.NewService(nil, contentCache, logger)),
		OfferingsHandler: offerings.NewHandler(logger, offerings.NewService(nil, contentCache, logger)),
		ContactsHandler:  contacts.NewHandler(logger, contacts.NewService(nil, nil, nil, logger)),
		MediaHandler:     media.NewHandler(logger, media.NewService(nil, nil, logger)),
		SeoHandler:       seo.NewHandler(logger, seo.NewService(nil, contentCache, "http://localhost:8080", nil, nil, logger)),
		UsersHandler:     users.NewHandler(logger, users.NewService(nil)),
		AnalyticsHandler: analytics.NewHandler(logger, analytics.NewService(nil, contentCache)),
	}

	var router http.Handler
	require.NotPanics(t, func() { router = NewRouter(params) })
	return router
}

func TestNewRouterRegistersEverySurface(t *testing.T) {
	router := newTestRouter(t)
	routes, ok := router.(chi.Router)
	require.True(t, ok)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/"},
		{http.MethodGet, "/robots.txt"},
		{http.MethodGet, "/unauthorized"},
		{http.MethodGet, "/sitemap.xml"},
		{http.MethodPost, "/auth/login"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/api/posts"},
		{http.MethodGet, "/api/projects"},
		{http.MethodGet, "/api/services"},
		{http.MethodGet, "/api/meta"},
		{http.MethodPost, "/api/contact"},
		{http.MethodGet, "/admin"},
		{http.MethodGet, "/api/admin/posts"},
		{http.MethodGet, "/api/admin/contacts/stats"},
		{http.MethodGet, "/api/admin/system/events"},
		{http.MethodGet, "/static/css/site.css"},
	}
	for _, tc := range cases {
		require.True(t, routes.Match(chi.NewRouteContext(), tc.method, tc.path), "%s %s not routed", tc.method, tc.path)
	}
}

func TestRouterServesHealthcheck(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestContactRouteUsesContactLimiter(t *testing.T) {
	router := newTestRouter(t)

	// Empty payloads fail validation before the service runs, so only
	// the gate state changes across requests.
	submit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Real-IP", "203.0.113.9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < gate.ContactLimiterConfig.MaxRequests; i++ {
		rec := submit()
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := submit()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), "retryAfter")
}
