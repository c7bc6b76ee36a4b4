package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/fabstate/internal/manifest"
	httpAdapter "github.com/aretw0/fabstate/pkg/adapters/http"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewServeHandler builds the manifest into a form served over HTTP. Scripted steps are not
// replayed. The returned func releases the submitter.
func NewServeHandler(opts Options, logger *slog.Logger) (http.Handler, func() error, error) {
	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return nil, nil, err
	}

	submitter, closeSubmitter, err := createSubmitter(opts)
	if err != nil {
		return nil, nil, err
	}

	hooks := domain.LifecycleHooks{}
	if opts.Debug {
		hooks = createDebugHooks(logger)
	}

	var metricsHandler http.Handler
	if opts.Metrics {
		reg := prometheus.NewRegistry()
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			closeSubmitter()
			return nil, nil, err
		}
		hooks = domain.MergeHooks(hooks, metrics.Hooks())
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	form, err := manifest.Build(m,
		manifest.WithLogger(logger),
		manifest.WithSubmitter(submitter),
		manifest.WithDebug(opts.Debug),
		manifest.WithLifecycleHooks(hooks),
	)
	if err != nil {
		closeSubmitter()
		return nil, nil, fmt.Errorf("error building form: %w", err)
	}

	serverOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
	if metricsHandler != nil {
		serverOpts = append(serverOpts, httpAdapter.WithMetricsHandler(metricsHandler))
	}
	return httpAdapter.NewHandler(form.Loader, form.Scope, serverOpts...), closeSubmitter, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, opts Options) error {
	logger := createLogger(opts)

	handler, closeSubmitter, err := NewServeHandler(opts, logger)
	if err != nil {
		return err
	}
	defer closeSubmitter()

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting fabstate server", "addr", srv.Addr, "manifest", opts.ManifestPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("Server stopped gracefully")
		return nil
	}
}
