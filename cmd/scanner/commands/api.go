package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholaslie90/stck-scanner/internal/api"
	"github.com/nicholaslie90/stck-scanner/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API server together with the scheduler.

Endpoints:
  GET  /health               - Health check
  GET  /metrics              - Prometheus metrics
  GET  /api/report/latest    - Last completed run (?format=text for the message)
  POST /api/scan             - Trigger a scan {"mode","date","tickers","dry_run"}
  GET  /api/jobs             - Scheduled jobs and their statistics
  POST /api/jobs/{name}/run  - Run a scheduled job now

Example:
  go run ./cmd/scanner api
  go run ./cmd/scanner api --port 8080 --no-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiNoScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiNoScheduler, "no-scheduler", false, "serve the API without scheduled scans")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	PrintHeader("Scanner API Server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	if apiPort != "" {
		cfg.Port = apiPort
	}
	log := app.Logger

	// 1. Scheduler
	sched, err := newScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if !apiNoScheduler {
		sched.Start()
		defer sched.Stop()
	}

	// 2. Router
	h := api.Handlers{
		Scan: handlers.NewScanHandler(ctx, app.Engine, cfg.Location(), log),
		Jobs: handlers.NewJobsHandler(sched, log),
	}
	if cfg.MetricsEnabled {
		h.Metrics = app.Metrics.Handler()
	}
	router := api.NewRouter(h, log)

	// 3. Server
	server := api.New(cfg.Port, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// separate metrics listener when configured on another port
	var metricsServer *http.Server
	if cfg.MetricsEnabled && cfg.MetricsPort != "" && cfg.MetricsPort != cfg.Port {
		metricsServer = &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           app.Metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Warn("Metrics server stopped")
			}
		}()
	}

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	if !apiNoScheduler {
		printJobTable(sched)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
