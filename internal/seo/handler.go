package seo

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-web/atelier/internal/platform/httpx"
	"github.com/atelier-web/atelier/internal/shared"
)

// Handler exposes metadata endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountPublic wires sitemap.xml at the site root.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/sitemap.xml", h.sitemap)
}

// MountMeta wires the per-path metadata lookup used by the rendering
// layer.
func (h *Handler) MountMeta(r chi.Router) {
	r.Get("/meta", h.meta)
}

// MountAdmin wires the management API.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/", h.save)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.Sitemap(r.Context())
	if err != nil {
		h.logger.Error("sitemap unavailable", "error", err)
		http.Error(w, "sitemap unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(body)
}

func (h *Handler) meta(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if !strings.HasPrefix(path, "/") {
		httpx.Problem(w, http.StatusBadRequest, "Invalid path", "path must start with /")
		return
	}
	out, err := h.service.ForPath(r.Context(), path)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("seo lookup failed", "error", err)
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("seo listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.RespondValidation(w, httpx.FieldErrors(err))
		return
	}
	out, err := h.service.Save(r.Context(), in)
	if err != nil {
		h.logger.Error("seo save failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be an integer")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
