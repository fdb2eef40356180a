package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/sheetscribe/internal/api/middleware"
	"github.com/kiranshivaraju/sheetscribe/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth *mw.Auth
	// RateLimit is optional; trigger routes are unlimited without Redis.
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	TriggerHandler http.HandlerFunc
	LastRunHandler http.HandlerFunc
	GetRunHandler  http.HandlerFunc
	EnqueueHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/runs", orNotImplemented(deps.TriggerHandler))
		r.Get("/api/v1/runs/last", orNotImplemented(deps.LastRunHandler))
		r.Get("/api/v1/runs/{runID}", orNotImplemented(deps.GetRunHandler))
		r.Post("/api/v1/jobs", orNotImplemented(deps.EnqueueHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, response.CodeNotImplemented, "Endpoint not yet implemented", nil)
	}
}
