package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/caption-api/internal/api"
	apiMiddleware "github.com/phrazzld/caption-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.SecureHeaders())
	r.Use(app.metrics.Middleware)

	captionHandler := api.NewCaptionHandler(app.captionService, app.config.Upload.MaxImageBytes, app.logger)
	limiter := apiMiddleware.NewRateLimiter(app.config.Server.RequestsPerSecond, app.config.Server.Burst)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Limit)

		r.Post("/generate", captionHandler.Generate)
		r.Post("/generate-with-image", captionHandler.GenerateWithImage)
		r.Post("/translate", captionHandler.Translate)
		r.Get("/test-key", captionHandler.TestKey)
	})

	r.Get("/health", api.Health(app.provider.Name()))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}
