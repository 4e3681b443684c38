package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/foodlens/internal/app"
	"github.com/hyperengineering/foodlens/internal/datauri"
	"github.com/hyperengineering/foodlens/internal/types"
	"github.com/hyperengineering/foodlens/internal/validation"
	"github.com/hyperengineering/foodlens/internal/workflow"
)

// uploadField is the multipart form field carrying an uploaded photo.
const uploadField = "image"

// multipartOverhead is the body allowance for multipart boundaries and
// part headers on top of the photo size limit.
const multipartOverhead = 64 << 10

// Handler implements the API handlers
type Handler struct {
	app     *app.App
	apiKey  string
	version string
}

// NewHandler creates a new Handler over the application context.
func NewHandler(a *app.App, apiKey, version string) *Handler {
	return &Handler{
		app:     a,
		apiKey:  apiKey,
		version: version,
	}
}

// PhotoURLResponse carries a presigned link to an archived photo.
type PhotoURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeState reports the outcome of a workflow trigger.
func writeState(w http.ResponseWriter, r *http.Request, st workflow.State, err error) {
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// historyID returns the {id} path parameter, writing a 422 problem when it
// is not a ULID.
func historyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if verr := validation.ValidateULID("id", id); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid history entry id", []validation.ValidationError{*verr})
		return "", false
	}
	return id, true
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Health(h.version))
}

// State handles GET /api/v1/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Workflow.State())
}

// StartCamera handles POST /api/v1/camera/start
func (h *Handler) StartCamera(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.StartCamera(r.Context())
	writeState(w, r, st, err)
}

// CancelCamera handles POST /api/v1/camera/cancel
func (h *Handler) CancelCamera(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.CancelCamera()
	writeState(w, r, st, err)
}

// Capture handles POST /api/v1/camera/capture
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.Capture(r.Context())
	writeState(w, r, st, err)
}

// Upload handles POST /api/v1/upload. The body is either a raw image
// (Content-Type image/*) or a multipart form with an "image" file field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		WriteProblem(w, r, http.StatusUnsupportedMediaType, "Content-Type must be an image or multipart/form-data")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.app.MaxUploadBytes+multipartOverhead)

	var (
		body        io.Reader = r.Body
		contentType           = mediaType
	)
	switch {
	case mediaType == "multipart/form-data":
		file, header, err := r.FormFile(uploadField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteProblem(w, r, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("upload exceeds %d bytes", h.app.MaxUploadBytes))
				return
			}
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Missing %q file field", uploadField))
			return
		}
		defer file.Close()
		body = file
		contentType = header.Header.Get("Content-Type")
		// Generic part types are sniffed instead.
		if contentType == "application/octet-stream" {
			contentType = ""
		}
	case strings.HasPrefix(mediaType, "image/"):
	default:
		WriteProblem(w, r, http.StatusUnsupportedMediaType, "Content-Type must be an image or multipart/form-data")
		return
	}

	st, err := h.app.Workflow.Upload(r.Context(), body, contentType)
	writeState(w, r, st, err)
}

// Search handles POST /api/v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	st, err := h.app.Workflow.Search(r.Context(), req.Name)
	writeState(w, r, st, err)
}

// NewScan handles POST /api/v1/scan/new
func (h *Handler) NewScan(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.NewScan(r.Context())
	writeState(w, r, st, err)
}

// ClearResult handles POST /api/v1/result/clear
func (h *Handler) ClearResult(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.Clear()
	writeState(w, r, st, err)
}

// DismissError handles POST /api/v1/error/dismiss
func (h *Handler) DismissError(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Workflow.DismissError()
	writeState(w, r, st, err)
}

// ListHistory handles GET /api/v1/history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries := h.app.History.Get()
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{Entries: entries, Total: len(entries)})
}

// GetHistory handles GET /api/v1/history/{id}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	entry, err := h.app.History.Find(id)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// SelectHistory handles POST /api/v1/history/{id}/select
func (h *Handler) SelectHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	st, err := h.app.Workflow.SelectHistory(id)
	writeState(w, r, st, err)
}

// PhotoURL handles GET /api/v1/history/{id}/photo-url
func (h *Handler) PhotoURL(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	entry, err := h.app.History.Find(id)
	if err != nil {
		MapError(w, r, err)
		return
	}
	mimeType, _, err := datauri.Decode(entry.Image)
	if err != nil {
		MapError(w, r, fmt.Errorf("decode stored image: %w", err))
		return
	}
	url, expires, err := h.app.Archive.PresignedURL(r.Context(), entry.ID, mimeType)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PhotoURLResponse{URL: url, ExpiresAt: expires})
}

// GetTheme handles GET /api/v1/theme
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ThemeResponse{Theme: h.app.Theme.Get()})
}

// SetTheme handles PUT /api/v1/theme
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req types.ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if err := h.app.Theme.Set(r.Context(), req.Theme); err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ThemeResponse{Theme: h.app.Theme.Get()})
}

// ToggleTheme handles POST /api/v1/theme/toggle
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.app.Theme.Toggle(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ThemeResponse{Theme: theme})
}
