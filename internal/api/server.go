package api

import (
	"context"
	"net/http"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server over the routes built from h.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{config: cfg, handler: SetupRoutes(h)}
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout(),
		IdleTimeout:       s.config.IdleTimeout(),
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
