package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/platform/httpx"
	"github.com/atelier-web/atelier/internal/shared"
	"github.com/atelier-web/atelier/internal/view"
)

// Handler wires HTTP endpoints for authentication flows. The login form
// posts urlencoded, admin clients post JSON; both land on the same
// handler.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	templates     *view.Engine
	events        gate.SecurityRecorder
	validator     *validator.Validate
	secureCookies bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, events gate.SecurityRecorder, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		templates:     templates,
		events:        events,
		validator:     validator.New(),
		secureCookies: secureCookies,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{Title: "Sign in", CurrentPath: r.URL.Path}
	if err := h.templates.Render(w, "pages/login.html", data); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	wantsJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")
	if wantsJSON {
		if err := httpx.DecodeJSON(r, &form); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		form.Email = r.PostFormValue("email")
		form.Password = r.PostFormValue("password")
	}

	if err := h.validator.Struct(form); err != nil {
		h.respondLoginFailure(w, r, wantsJSON, "Email and password are required")
		return
	}

	token, ident, err := h.service.Login(r.Context(), form.Email, form.Password, clientAddr(r), r.UserAgent())
	if err != nil {
		h.recordFailedLogin(r, form.Email)
		h.respondLoginFailure(w, r, wantsJSON, "Invalid email or password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Expires:  ident.ExpiresAt,
	})

	if wantsJSON {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"id":   ident.Principal.ID,
			"role": ident.Principal.Role,
		})
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := gate.SessionTokenFromRequest(r); raw != "" {
		h.service.Logout(r.Context(), raw)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     gate.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) respondLoginFailure(w http.ResponseWriter, r *http.Request, wantsJSON bool, message string) {
	if wantsJSON {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", message)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
	data := view.TemplateData{Title: "Sign in", CurrentPath: r.URL.Path, Data: map[string]any{"Error": message}}
	if err := h.templates.Render(w, "pages/login.html", data); err != nil {
		h.logger.Error("render login failure", slog.Any("error", err))
	}
}

func (h *Handler) recordFailedLogin(r *http.Request, email string) {
	if h.events == nil {
		return
	}
	ev := shared.SecurityEvent{
		Type:      "login_failed",
		IP:        clientAddr(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
		Method:    r.Method,
		Details:   map[string]any{"email": email},
	}
	if err := h.events.Record(r.Context(), ev); err != nil && h.logger != nil {
		h.logger.Warn("record failed login", slog.Any("error", err))
	}
}

func clientAddr(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
