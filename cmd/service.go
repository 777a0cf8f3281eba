package cmd

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// minShutdownTimeout bounds how quickly in-flight requests are cut off on shutdown.
const minShutdownTimeout = time.Second

func cmdService() *cobra.Command {
	return &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve the routing handler over plain HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd)
		},
	}
}

func runService(cmd *cobra.Command) error {
	logger.Info("spawning...")
	rtm, err := setup(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup service")
	}

	logger.Debug("creating HTTP server...")
	return serve(cmd.Context(), newServer(rtm), cfg.Service.Timeout)
}

// newServer mounts h on the configured service path.
func newServer(h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Service.Path, h)

	return &http.Server{
		Handler:      mux,
		Addr:         net.JoinHostPort(cfg.Service.Addr, cfg.Service.Port),
		WriteTimeout: cfg.Service.Timeout,
		ReadTimeout:  cfg.Service.Timeout,
		IdleTimeout:  cfg.Service.Timeout,
	}
}

// serve runs s until ctx is done, then shuts it down gracefully. Listen failures are returned immediately.
func serve(ctx context.Context, s *http.Server, timeout time.Duration) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()
	logger.Info("serving...", "address", ln.Addr().String(), "timeout", timeout.String())

	select {
	case err = <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(timeout))
	defer cancel()
	if err = s.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down")
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func shutdownTimeout(timeout time.Duration) time.Duration {
	return max(timeout, minShutdownTimeout)
}
