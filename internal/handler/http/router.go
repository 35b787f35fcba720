package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/health"
	"github.com/7azemaamer/salla-adv-bundler-sub000/pkg/middleware"
)

// NewRouter assembles the HTTP routes for the bundler service.
func NewRouter(h *BundleHandler, healthHandler *health.Handler, serviceName string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogging(log))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.Get("/health", healthHandler.ReadinessHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/bundles", func(r chi.Router) {
		r.Post("/", h.CreateBundle)
		r.Get("/", h.ListBundles)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetBundle)
			r.Put("/", h.UpdateBundle)
			r.Delete("/", h.DeleteBundle)

			r.Post("/offers/generate", h.GenerateOffers)
			r.Get("/offers/preview", h.PreviewOffers)
			r.Post("/deactivate", h.DeactivateBundle)
			r.Post("/track/{metric}", h.TrackMetric)
			r.Get("/stats", h.GetStats)
		})
	})

	return r
}
