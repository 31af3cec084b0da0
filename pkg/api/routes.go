package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/sat-graph-features/pkg/features"
	"github.com/gilchrisn/sat-graph-features/pkg/metrics"
)

// SetupRoutes registers the API under /api/v1
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/features", handlers.ListFeatures).Methods("GET")
	api.HandleFunc("/features", handlers.ComputeFeatures).Methods("POST")
	api.HandleFunc("/communities", handlers.ComputeCommunities).Methods("POST")

	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("", handlers.SubmitJob).Methods("POST")
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.CancelJob).Methods("DELETE")

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}

// Server serves the feature API
type Server struct {
	http    *http.Server
	jobs    *JobService
	service *features.Service
	logger  zerolog.Logger
}

// NewServer wires handlers, middleware and the metrics endpoint. registry
// may be nil, in which case /metrics is not served.
func NewServer(service *features.Service, registry *metrics.Registry) *Server {
	config := service.Config()
	logger := config.CreateLogger().With().Str("component", "api").Logger()

	jobs := NewJobService(service, logger, config.MaxJobs(), config.JobTTL())
	handlers := NewHandlers(service, jobs, logger)

	router := mux.NewRouter()
	SetupRoutes(router, handlers)
	if registry != nil {
		router.Handle("/metrics", registry.Handler()).Methods("GET")
	}

	router.Use(RequestIDMiddleware)
	router.Use(LoggingMiddleware(logger))
	router.Use(MetricsMiddleware(registry))
	router.Use(RecoveryMiddleware(logger))

	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return &Server{
		http: &http.Server{
			Addr:         config.ServerAddress(),
			Handler:      c.Handler(router),
			ReadTimeout:  config.ReadTimeout(),
			WriteTimeout: config.WriteTimeout(),
		},
		jobs:    jobs,
		service: service,
		logger:  logger,
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Addr returns the listen address
func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe serves until Shutdown. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().
		Str("address", s.http.Addr).
		Msg("HTTP server starting")
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones, cancels
// background jobs and releases the move log
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.jobs.Close()
	if closeErr := s.service.Close(); closeErr != nil {
		s.logger.Warn().Err(closeErr).Msg("Move log incomplete")
	}
	return err
}
