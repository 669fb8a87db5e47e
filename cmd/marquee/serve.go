package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/marquee/internal/api"
	"github.com/abelbrown/marquee/internal/logging"
	"github.com/abelbrown/marquee/internal/otel"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search flow as a JSON API",
	Long: `Serve GET /api/movies, GET /api/trending and GET /api/events.
Searches made through the API count towards trending like the TUI.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger := logging.New(os.Stderr, cfg.Log.Level)
	d, err := wire(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.New(api.Deps{
			Search:      d.service,
			Trending:    d.tracker,
			Recent:      d.recent,
			Events:      d.events,
			Log:         logger,
			CORSOrigins: cfg.Server.CORSOrigins,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "backend", cfg.Trending.Backend)
		d.events.Info(otel.KindStartup, "main", "serve "+cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return reportFailure(d.events, "listen", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return reportFailure(d.events, "shutdown", err)
	}
	d.events.Info(otel.KindShutdown, "main", "serve")
	return nil
}
