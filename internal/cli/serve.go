package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/api"
	"github.com/billmal071/novelapi/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API server.

Fonts saved by /content2 are served under the public asset prefix and
removed by a background sweeper once they are older than assets.max_age.

Examples:
  novelapi serve
  novelapi serve --addr :9000
  NOVELAPI_SERVER_MODE=debug novelapi serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := slog.Default()

	addr := cfg.Server.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}

	svc, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(svc.api(), api.Options{
		PublicPrefix:   cfg.Assets.PublicPrefix,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		svc.sweeper(cfg, logger).Run(ctx)
	}()

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case serveErr = <-errCh:
		logger.Error("server error", "err", serveErr)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", "err", err)
	}

	cancel()
	<-sweepDone
	logger.Info("server stopped")

	if serveErr != nil {
		return fmt.Errorf("server failed: %w", serveErr)
	}
	return nil
}
