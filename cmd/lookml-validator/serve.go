package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nptlong93/lookml-filter-dashboard-validator/internal/server"
	"github.com/nptlong93/lookml-filter-dashboard-validator/pkg/config"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cfg := config.DefaultConfig()
	var typesCSV string
	var originsCSV string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dashboard analysis over HTTP",
		Long: `Start an HTTP server that analyzes uploaded dashboard definitions.

POST a definition to /api/v1/dashboards/analyze (form field "file") or
several to /api/v1/dashboards/analyze/batch (form field "files").
Prometheus metrics are exposed at /metrics.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if typesCSV != "" {
				cfg.NonFilterableTypes = splitCSV(typesCSV)
			}
			if originsCSV != "" {
				cfg.AllowedOrigins = splitCSV(originsCSV)
			}
			cfg.Normalize()

			if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
				return fmt.Errorf("invalid --port value: must be between 1 and 65535")
			}
			if cfg.RateLimitRPS < 1 {
				return fmt.Errorf("invalid --rate-limit value: must be at least 1")
			}
			if cfg.MaxUploadBytes < 1 {
				return fmt.Errorf("invalid --max-upload-bytes value: must be at least 1")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.ServerPort, "port", cfg.ServerPort, "Port to listen on")
	cmd.Flags().IntVar(&cfg.RateLimitRPS, "rate-limit", cfg.RateLimitRPS, "API rate limit (requests/sec)")
	cmd.Flags().Int64Var(&cfg.MaxUploadBytes, "max-upload-bytes", cfg.MaxUploadBytes, "Maximum upload size per dashboard file")
	cmd.Flags().StringVar(&typesCSV, "non-filterable-types", "", "Comma-separated visualization types excluded from coverage (globs allowed)")
	cmd.Flags().StringVar(&originsCSV, "allowed-origins", "", "Comma-separated CORS origins (default: all)")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")

	return cmd
}

// runServe starts the HTTP server and blocks until interrupted.
func runServe(cfg *config.Config) error {
	srv, err := server.New(cfg, version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := "http://localhost:" + strconv.Itoa(cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Serving dashboard analysis at %s (Ctrl+C to stop)\n", url)

	return srv.Run(ctx)
}
