package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Protected routes (auth required when an API key is configured)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Get("/state", h.State)
			r.Get("/events", h.Events)

			r.Post("/camera/start", h.StartCamera)
			r.Post("/camera/cancel", h.CancelCamera)
			r.Post("/camera/capture", h.Capture)
			r.Post("/upload", h.Upload)
			r.Post("/search", h.Search)
			r.Post("/scan/new", h.NewScan)
			r.Post("/result/clear", h.ClearResult)
			r.Post("/error/dismiss", h.DismissError)

			r.Get("/history", h.ListHistory)
			r.Get("/history/{id}", h.GetHistory)
			r.Post("/history/{id}/select", h.SelectHistory)
			r.Get("/history/{id}/photo-url", h.PhotoURL)

			r.Get("/theme", h.GetTheme)
			r.Put("/theme", h.SetTheme)
			r.Post("/theme/toggle", h.ToggleTheme)
		})
	})

	return r
}
