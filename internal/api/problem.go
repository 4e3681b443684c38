package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/foodlens/internal/archive"
	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/history"
	"github.com/hyperengineering/foodlens/internal/preferences"
	"github.com/hyperengineering/foodlens/internal/validation"
	"github.com/hyperengineering/foodlens/internal/workflow"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

const problemBase = "https://foodlens.dev/errors/"

var problemTypes = map[int]problemType{
	http.StatusBadRequest:            {problemBase + "bad-request", "Bad Request"},
	http.StatusUnauthorized:          {problemBase + "unauthorized", "Unauthorized"},
	http.StatusNotFound:              {problemBase + "not-found", "Not Found"},
	http.StatusConflict:              {problemBase + "conflict", "Conflict"},
	http.StatusRequestEntityTooLarge: {problemBase + "payload-too-large", "Payload Too Large"},
	http.StatusUnsupportedMediaType:  {problemBase + "unsupported-media-type", "Unsupported Media Type"},
	http.StatusUnprocessableEntity:   {problemBase + "validation-error", "Validation Error"},
	http.StatusInternalServerError:   {problemBase + "internal-error", "Internal Server Error"},
	http.StatusServiceUnavailable:    {problemBase + "service-unavailable", "Service Unavailable"},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{problemBase + "unknown", http.StatusText(status)}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt := lookupProblemType(status)
	writeProblemBody(w, status, Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
// Device and analysis failures never reach here; they are workflow states.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrBusy):
		WriteProblem(w, r, http.StatusConflict, "An analysis is already in progress")
	case errors.Is(err, workflow.ErrInvalidTransition):
		WriteProblem(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrUploadTooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, workflow.ErrInvalidUpload):
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, workflow.ErrInvalidQuery):
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, preferences.ErrInvalidTheme):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "theme must be light or dark")
	case errors.Is(err, history.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "History entry not found")
	case errors.Is(err, archive.ErrNotConfigured):
		WriteProblem(w, r, http.StatusNotFound, "Photo archive is not configured")
	case errors.Is(err, workflow.ErrClosed):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Service is shutting down")
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err, "request_id", GetRequestID(r.Context()))
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
