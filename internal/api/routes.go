package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/internal/storage/sqlite"
	"github.com/skysift/cotbridge/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	metrics    *metrics.Metrics
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(config *config.Config, storage *sqlite.EventStorage, m *metrics.Metrics, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(config, storage, logger),
		middleware: NewMiddleware(logger),
		metrics:    m,
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)
		router.Get("/status", r.handler.GetStatus)

		// Event log routes
		router.Get("/events/recent", r.handler.GetRecentEvents)
		router.Get("/events/{uid}", r.handler.GetEventsByUID)
	})

	// Prometheus scrape endpoint
	router.Handle("/metrics", r.metrics.Handler())

	return router
}
