package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// readHeaderTimeout bounds header reads on the scrape endpoint.
const readHeaderTimeout = 5 * time.Second

// prometheusReader builds a Prometheus exporter on a private registry and
// returns it as an sdkmetric.Reader plus the scrape handler for /metrics.
func prometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// servePrometheus serves the scrape handler on addr until shutdown.
// Long walks over large histories are scrapable while they run; the returned
// function stops the listener.
func servePrometheus(addr string, handler http.Handler, logger *slog.Logger) shutdownFunc {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		serveErr := server.ListenAndServe()
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("prometheus endpoint failed", "addr", addr, "error", serveErr)
		}
	}()

	return func(ctx context.Context) error {
		err := server.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("shutdown metrics endpoint: %w", err)
		}

		return nil
	}
}
