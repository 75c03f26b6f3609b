// Package server exposes the gateway over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/logger"
)

// Server represents the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// New constructs a Server instance using the provided router.
func New(log logger.Logger, cfg config.HTTPConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       config.GetDuration(cfg.ReadTimeout),
			WriteTimeout:      config.GetDuration(cfg.WriteTimeout),
			IdleTimeout:       config.GetDuration(cfg.IdleTimeout),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Start begins listening for HTTP traffic and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting http server", map[string]interface{}{"addr": s.httpServer.Addr})
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully terminates all active connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server", nil)
	return s.httpServer.Shutdown(ctx)
}
