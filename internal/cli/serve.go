package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CrimsonX77/RedVerse/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the memory API server",
		Long: `Start the HTTP memory API.

The server exposes the store/load/history/summary/emotions/stats endpoints
plus member validation and a health check. It shuts down gracefully on
SIGINT or SIGTERM.

Example:
  aurora serve --config aurora.yaml
  aurora serve --listen 0.0.0.0:8080 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, listen, cmd)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "bind address (overrides config)")
	return cmd
}

func runServe(opts *RootOptions, listen string, cmd *cobra.Command) error {
	svcs, err := buildServices(opts)
	if err != nil {
		return err
	}
	defer svcs.Close()

	if listen == "" {
		listen = svcs.cfg.Listen
	}

	server := api.NewServer(svcs.engine, svcs.resolver, svcs.registry, slog.Default())
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("memory API listening", "addr", listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitCommandError, "shutdown", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitCommandError, "serve", err)
	}
}
