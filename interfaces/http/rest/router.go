package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/infrastructure/persistence/memory"
	"github.com/silv3rmat/tainted-journal/interfaces/http/rest/handlers"
	"github.com/silv3rmat/tainted-journal/interfaces/http/rest/middleware"
)

// Router configures the dev overwrite store's HTTP surface
type Router struct {
	store  *memory.LocationStore
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(store *memory.LocationStore, logger *zap.Logger) *Router {
	return &Router{store: store, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("store"), rt.logger))
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(), rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)

	router.Route("/api/locations", func(r chi.Router) {
		locationHandler := handlers.NewLocationHandler(rt.store, rt.logger)
		r.Get("/{locationID}", locationHandler.GetLocation)
		r.Post("/{locationID}/graph", locationHandler.SaveGraph)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
