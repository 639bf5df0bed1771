package cmd

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procshim-go/internal/host"
	"github.com/wagiedev/procshim-go/internal/metrics"
)

// shutdownTimeout bounds CloseAll after the server stops.
const shutdownTimeout = 10 * time.Second

func (a *app) newServeCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve process, download and unzip tools over MCP stdio",
		Long: `Serve exposes procshim as a Model Context Protocol server on stdin and
stdout. Each client creates process instances with proc_new, starts
programs with exec_cmd and reads their output with read_line.

Child processes never inherit stdin, so they cannot interfere with the
protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address (for example 127.0.0.1:9464)")

	return cmd
}

func (a *app) serve(ctx context.Context, metricsAddr string) error {
	hostOpts := a.file.Host
	if hostOpts.ServerVersion == "" || hostOpts.ServerVersion == "dev" {
		hostOpts.ServerVersion = Version
	}

	var recorder *metrics.Recorder
	if metricsAddr != "" {
		recorder = metrics.New()
	}

	h := host.New(&host.Config{
		Logger:  a.log,
		Session: a.file.Session,
		Host:    hostOpts,
		Metrics: recorder,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// The metrics listener stops once the client goes away.
		defer cancel()

		return h.Tools().ServeStdio(ctx)
	})

	if recorder != nil {
		eg.Go(func() error {
			return a.serveMetrics(ctx, metricsAddr, recorder)
		})
	}

	err := eg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if cerr := h.CloseAll(closeCtx); cerr != nil {
		a.log.Warn("Failed to close instances", "error", cerr)
	}

	return err
}

// serveMetrics exposes recorder on addr until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string, recorder *metrics.Recorder) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info("Serving metrics", "addr", ln.Addr().String())

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
