package media

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/platform/httpx"
	"github.com/atelier-web/atelier/internal/shared"
)

// Handler exposes the media library API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountAdmin wires the library API.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/uploads", h.requestUpload)
	r.Post("/{id}/complete", h.completeUpload)
	r.Get("/{id}/url", h.downloadURL)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r.URL.Query())
	out, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("media listing failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) requestUpload(w http.ResponseWriter, r *http.Request) {
	var in UploadRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.RespondValidation(w, httpx.FieldErrors(err))
		return
	}
	var uploadedBy int64
	if principal := gate.PrincipalFromContext(r.Context()); principal != nil {
		uploadedBy = principal.ID
	}
	ticket, err := h.service.RequestUpload(r.Context(), uploadedBy, in)
	if err != nil {
		h.logger.Error("upload request failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ticket)
}

func (h *Handler) completeUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be an integer")
		return
	}
	obj, err := h.service.CompleteUpload(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, obj)
}

func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be an integer")
		return
	}
	url, err := h.service.DownloadURL(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
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

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
