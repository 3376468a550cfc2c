package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server runs the status API. It satisfies the pipeline worker contract so
// the orchestrator can schedule it alongside the gateway workers.
type Server struct {
	router *Router
	addr   string
	logger *logger.Logger
}

// NewServer creates a new status API server
func NewServer(router *Router, cfg config.ServerConfig, logger *logger.Logger) *Server {
	return &Server{
		router: router,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		logger: logger.Named("api-server"),
	}
}

// Name identifies the worker in shutdown reports
func (s *Server) Name() string {
	return "api-server"
}

// Run serves HTTP until the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Status API listening", logger.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down status API: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status API failed: %w", err)
		}
		return nil
	}
}
