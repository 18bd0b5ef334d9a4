// Package server wraps the HTTP server lifecycle around internal/api's
// router. Grounded on the teacher's internal/server/server.go, with one
// deliberate departure: WriteTimeout is left at zero, since spec.md §6's
// subscribe_events is a long-lived SSE stream that the teacher's
// fixed-duration WriteTimeout would cut off mid-stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/epistemicgarden/cultivator/internal/api"
)

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8080,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// Server wraps the HTTP server over an api.Handler.
type Server struct {
	config Config
	http   *http.Server
}

// NewServer builds a Server exposing h's routes under config.
func NewServer(h *api.Handler, config Config) *Server {
	router := api.NewRouter(h)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:     router,
		ReadTimeout: config.ReadTimeout,
		IdleTimeout: config.IdleTimeout,
		// WriteTimeout intentionally unset: subscribe_events holds the
		// connection open indefinitely.
	}

	return &Server{config: config, http: httpServer}
}

// Start starts the HTTP server and blocks until it stops or errors.
func (s *Server) Start(_ context.Context) error {
	fmt.Printf("Starting HTTP server on %s\n", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Println("Shutting down server...")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	fmt.Println("Server shutdown complete")
	return nil
}
