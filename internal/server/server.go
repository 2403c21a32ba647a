package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/belzunces/monsieurchef/config"
	"github.com/belzunces/monsieurchef/internal/controller"
)

const shutdownTimeout = 5 * time.Second

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	http     *http.Server
	registry *controller.Registry
	maxIdle  time.Duration
}

// New creates a server for router. Controllers in registry idle for longer
// than cfg.SessionIdleTimeout are swept while the server runs.
func New(cfg *config.Config, router *gin.Engine, registry *controller.Registry) *Server {
	return &Server{
		router:   router,
		registry: registry,
		maxIdle:  cfg.SessionIdleTimeout,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		s.sweep(sweepCtx)
	}()

	select {
	case err := <-errCh:
		stopSweep()
		<-sweepDone
		return err
	case <-ctx.Done():
	}
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	<-sweepDone
	if srvErr := <-errCh; srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
		return srvErr
	}
	return err
}

func (s *Server) sweep(ctx context.Context) {
	if s.registry == nil || s.maxIdle <= 0 {
		<-ctx.Done()
		return
	}

	interval := s.maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Sweep(s.maxIdle); n > 0 {
				slog.Debug("swept idle sessions", "count", n, "live", s.registry.Len())
			}
		}
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
