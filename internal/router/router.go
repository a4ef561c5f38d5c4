package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timevault-dev/timevault/internal/middleware/metrics"
	"github.com/timevault-dev/timevault/internal/setup"
)

// New creates and configures the chi router with all the routes.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	// setup CORS for frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/v1/health", h.Health)
	r.Method(http.MethodGet, "/v1/metrics", promhttp.Handler())

	r.Route("/v1/capsules", func(r chi.Router) {
		// Writes and the owner listing need a signed-in viewer.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth())
			r.Post("/", h.CreateCapsule)
			r.Get("/", h.ListOwnerCapsules)
			r.Patch("/{id}", h.EditCapsule)
			r.Delete("/{id}", h.DeleteCapsule)
		})

		// Reads work anonymously; the access matrix decides per capsule.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth())
			r.Get("/{id}", h.GetCapsule)
			r.Get("/{id}/images/{name}", h.GetImage)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth())
		r.Get("/v1/explore", h.ListPublicCapsules)
	})

	return r
}
