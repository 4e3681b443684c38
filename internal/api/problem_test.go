package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/foodlens/internal/archive"
	"github.com/hyperengineering/foodlens/internal/capture"
	"github.com/hyperengineering/foodlens/internal/history"
	"github.com/hyperengineering/foodlens/internal/preferences"
	"github.com/hyperengineering/foodlens/internal/validation"
	"github.com/hyperengineering/foodlens/internal/workflow"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) Problem {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal problem: %v (%s)", err, w.Body.String())
	}
	return p
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)

	WriteProblem(w, r, http.StatusConflict, "busy")

	p := decodeProblem(t, w)
	if w.Code != http.StatusConflict || p.Status != http.StatusConflict {
		t.Errorf("status = %d/%d, want 409", w.Code, p.Status)
	}
	if p.Type != problemBase+"conflict" || p.Title != "Conflict" {
		t.Errorf("type/title = %q/%q", p.Type, p.Title)
	}
	if p.Detail != "busy" || p.Instance != "/api/v1/search" {
		t.Errorf("detail/instance = %q/%q", p.Detail, p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteProblem(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusTeapot, "tea")

	p := decodeProblem(t, w)
	if p.Type != problemBase+"unknown" {
		t.Errorf("type = %q, want unknown", p.Type)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %q", p.Title)
	}
}

func TestWriteProblemWithErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)

	WriteProblemWithErrors(w, r, "invalid query", []validation.ValidationError{
		{Field: "name", Message: "is required"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var body ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "name" {
		t.Errorf("errors = %+v", body.Errors)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"busy", workflow.ErrBusy, http.StatusConflict},
		{"invalid transition", fmt.Errorf("%w: capture from idle", workflow.ErrInvalidTransition), http.StatusConflict},
		{"too large", fmt.Errorf("%w: %w", workflow.ErrInvalidUpload, capture.ErrUploadTooLarge), http.StatusRequestEntityTooLarge},
		{"bad upload", fmt.Errorf("%w: %w", workflow.ErrInvalidUpload, capture.ErrUnsupportedImage), http.StatusUnprocessableEntity},
		{"bad query", workflow.ErrInvalidQuery, http.StatusUnprocessableEntity},
		{"bad theme", preferences.ErrInvalidTheme, http.StatusUnprocessableEntity},
		{"unknown entry", history.ErrNotFound, http.StatusNotFound},
		{"no archive", archive.ErrNotConfigured, http.StatusNotFound},
		{"closed", workflow.ErrClosed, http.StatusServiceUnavailable},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MapError(w, httptest.NewRequest(http.MethodPost, "/api/v1/x", nil), tt.err)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestMapError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	MapError(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("sqlite: disk I/O error at /var/db"))

	p := decodeProblem(t, w)
	if p.Detail != "Internal Server Error" {
		t.Errorf("detail = %q, want generic message", p.Detail)
	}
}
