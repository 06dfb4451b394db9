package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atelier-web/atelier/internal/analytics"
	"github.com/atelier-web/atelier/internal/auth"
	"github.com/atelier-web/atelier/internal/contacts"
	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/media"
	"github.com/atelier-web/atelier/internal/observability"
	"github.com/atelier-web/atelier/internal/offerings"
	"github.com/atelier-web/atelier/internal/platform/httpx"
	"github.com/atelier-web/atelier/internal/posts"
	"github.com/atelier-web/atelier/internal/projects"
	"github.com/atelier-web/atelier/internal/seo"
	"github.com/atelier-web/atelier/internal/shared"
	"github.com/atelier-web/atelier/internal/users"
	"github.com/atelier-web/atelier/internal/view"
	"github.com/atelier-web/atelier/jobs"
	"github.com/atelier-web/atelier/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Templates *view.Engine

	Gate     *gate.Gate
	Limiters *gate.Limiters

	AuthHandler      *auth.Handler
	PostsHandler     *posts.Handler
	ProjectsHandler  *projects.Handler
	OfferingsHandler *offerings.Handler
	ContactsHandler  *contacts.Handler
	MediaHandler     *media.Handler
	SeoHandler       *seo.Handler
	UsersHandler     *users.Handler
	AnalyticsHandler *analytics.Handler
	JobHandler       *jobs.Handler

	SecurityLog *shared.SecurityLogger
	Metrics     *observability.Metrics
}

// NewRouter constructs the chi.Router for the site.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{Title: "Atelier", CurrentPath: r.URL.Path}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/unauthorized", func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{Title: "Access denied", CurrentPath: r.URL.Path}
		if err := params.Templates.Render(w, "pages/unauthorized.html", data); err != nil {
			params.Logger.Error("render unauthorized", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /admin\nDisallow: /api/admin\nSitemap: " + params.Config.AppBaseURL + "/sitemap.xml\n"))
	})

	// Login traffic shares the narrow auth limiter.
	r.Route("/auth", func(r chi.Router) {
		r.Use(params.Gate.Protect(params.Limiters.Auth))
		params.AuthHandler.MountRoutes(r)
	})

	// Sitemap under the moderate API limiter.
	r.Group(func(r chi.Router) {
		r.Use(params.Gate.Protect(params.Limiters.API))
		params.SeoHandler.MountPublic(r)
	})

	// Public JSON API, mounted once: chi rejects a second mount on the
	// same pattern. Read endpoints share the moderate API limiter; the
	// contact form gets its own very low ceiling.
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Protect(params.Limiters.API))
			params.PostsHandler.MountPublic(r)
			params.ProjectsHandler.MountPublic(r)
			params.OfferingsHandler.MountPublic(r)
			params.SeoHandler.MountMeta(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Protect(params.Limiters.Contact))
			params.ContactsHandler.MountPublic(r)
		})
	})

	// Admin UI pages.
	r.Route("/admin", func(r chi.Router) {
		r.Use(params.Gate.Protect(params.Limiters.API))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			principal := gate.PrincipalFromContext(r.Context())
			role := ""
			if principal != nil {
				role = string(principal.Role)
			}
			data := view.TemplateData{Title: "Dashboard", CurrentPath: r.URL.Path, Data: map[string]any{"Role": role}}
			if err := params.Templates.Render(w, "pages/admin_home.html", data); err != nil {
				params.Logger.Error("render admin home", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	})

	// Admin API. The gate's path rules decide per prefix; Require adds
	// route-level depth inside each module.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(params.Gate.Protect(params.Limiters.API))
		r.Route("/posts", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManagePosts))
			params.PostsHandler.MountAdmin(r)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageProjects))
			params.ProjectsHandler.MountAdmin(r)
		})
		r.Route("/services", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageServices))
			params.OfferingsHandler.MountAdmin(r)
		})
		r.Route("/contacts", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageContacts))
			params.ContactsHandler.MountAdmin(r)
		})
		r.Route("/media", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageMedia))
			params.MediaHandler.MountAdmin(r)
		})
		r.Route("/seo", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManagePosts))
			params.SeoHandler.MountAdmin(r)
		})
		r.Route("/users", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageUsers))
			params.UsersHandler.MountAdmin(r)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermViewAnalytics))
			params.AnalyticsHandler.MountAdmin(r)
		})
		r.Route("/system", func(r chi.Router) {
			r.Use(params.Gate.Require(gate.PermManageSystem))
			r.Get("/events", securityEvents(params.Logger, params.SecurityLog))
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func securityEvents(logger *slog.Logger, log *shared.SecurityLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		events, err := log.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("security event listing failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
