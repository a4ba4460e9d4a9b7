// Package server exposes dashboard analysis over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

// Server is the HTTP front end of the analyzer.
type Server struct {
	config  *config.Config
	version string
	engine  *gin.Engine
}

// New builds a server with routing and middleware installed.
func New(cfg *config.Config, version string) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  cfg,
		version: version,
	}
	s.engine = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(CORS(s.config.AllowedOrigins))

	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.Use(RateLimit(s.config.RateLimitRPS))
	{
		api.POST("/dashboards/analyze", s.AnalyzeDashboard)
		api.POST("/dashboards/analyze/batch", s.AnalyzeBatch)
	}

	return engine
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.ServerPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("analysis server started", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("analysis server stopped")
	return nil
}
