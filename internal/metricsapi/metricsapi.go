// Package metricsapi exposes the metrics registry over HTTP for scraping.
package metricsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds how long graceful HTTP shutdown waits for
// in-flight scrapes to finish.
const shutdownTimeout = 5 * time.Second

// Server serves GET /metrics in Prometheus text exposition format.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New builds a metrics server bound to addr (e.g. ":3032"), backed by reg.
func New(addr string, reg *prometheus.Registry, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		log: log,
	}
}

// Run listens until ctx is canceled, then shuts the server down gracefully.
// It returns nil on a clean shutdown and any other bind/serve error
// otherwise.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("metrics endpoint listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
