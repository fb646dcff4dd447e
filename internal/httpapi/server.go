package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the HTTP server
type Options struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server is the REST API server
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new server serving h
func NewServer(opts Options, h *Handler, logger *slog.Logger) *Server {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      NewRouter(h, opts.AllowedOrigins, logger),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return &Server{httpServer: srv, logger: logger}
}

// NewRouter builds the route tree
func NewRouter(h *Handler, allowedOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	var observer RequestObserver
	if h.metrics != nil {
		observer = h.metrics
	}

	r.Use(LoggerMiddleware(logger, observer))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", TraceHeader},
		ExposedHeaders:   []string{TraceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", h.ListListings)
			r.Get("/all", h.AllListings)
			r.Post("/refresh", h.RefreshListings)
			r.Get("/{id}", h.GetListing)
			r.Get("/{id}/contact-template", h.ContactTemplate)
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", h.GetFilters)
			r.Patch("/", h.PatchFilters)
			r.Delete("/", h.ResetFilters)
			r.Get("/options", h.FilterOptions)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", h.GetFavorites)
			r.Post("/{id}/toggle", h.ToggleFavorite)
			r.Delete("/", h.ClearFavorites)
		})

		r.Route("/compare", func(r chi.Router) {
			r.Get("/", h.GetCompare)
			r.Post("/{id}/toggle", h.ToggleCompare)
			r.Put("/{id}", h.AddCompare)
			r.Delete("/{id}", h.RemoveCompare)
			r.Delete("/", h.ClearCompare)
		})

		r.Route("/recent", func(r chi.Router) {
			r.Get("/", h.GetRecent)
			r.Delete("/{id}", h.RemoveRecent)
			r.Delete("/", h.ClearRecent)
		})

		r.Get("/map", h.Map)
		r.Post("/contact", h.Contact)
	})

	return r
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until it is stopped
func (s *Server) Start() error {
	s.logger.Info("starting REST API server", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping REST API server")
	return s.httpServer.Shutdown(ctx)
}
