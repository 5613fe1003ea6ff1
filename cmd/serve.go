package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"console_rental/internal/config"
	"console_rental/internal/handlers"
	"console_rental/internal/logger"
	"console_rental/internal/server"
	"console_rental/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the expiry sweeper",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	apiHandler := handlers.NewHandler(a.services, a.log, handlers.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeperDone := runSweeper(ctx, a.services.Sweeper, cfg.Sweeper.Interval)

	srv := &server.Server{}
	errCh := runHTTPServer(srv, cfg.Port, apiHandler, a.log)

	return waitForShutdown(cancel, srv, errCh, sweeperDone, a.log)
}

// runSweeper starts the expiry loop; the returned channel closes once Run has returned.
func runSweeper(ctx context.Context, sw service.Sweeper, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sw.Run(ctx, interval)
	}()
	return done
}

// runHTTPServer runs the HTTP server in a separate goroutine and reports a failed start on the returned channel.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// waitForShutdown blocks until a termination signal or a server failure, then stops everything.
// It returns only after the sweeper has finished its current pass, so the database can be closed.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, errCh <-chan error, sweeperDone <-chan struct{}, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		log.Infow("shutting down server...")
	case runErr = <-errCh:
		log.Errorw("error starting server", "err", runErr)
	}

	// stop the sweeper
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownErr := srv.Shutdown(ctx)
	if shutdownErr != nil {
		log.Errorw("server forced to shutdown", "err", shutdownErr)
	}

	<-sweeperDone
	log.Infow("sweeper stopped")

	if shutdownErr != nil {
		return shutdownErr
	}
	return runErr
}
