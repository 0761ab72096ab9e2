package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type MetricsExporterType string

const (
	NoneExporter       MetricsExporterType = "none"
	ConsoleExporter    MetricsExporterType = "console"
	PrometheusExporter MetricsExporterType = "prometheus"
)

type ShutdownFunc func(ctx context.Context) error

func nopShutdown(context.Context) error { return nil }

// NewConsoleMetricsExporter installs a global meter provider printing the
// metrics every interval. Serves for test/dev environment.
func NewConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// NewPrometheusMetricsExporter installs a global meter provider backed by a
// private prometheus registry and returns the scrape handler of it.
// Serves for the product environment and fetch stats metrics by HTTP.
func NewPrometheusMetricsExporter() (ShutdownFunc, http.Handler, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return mp.Shutdown, handler, nil
}

// NewMetricsExporter installs the exporter named by typ. The handler is
// nil unless typ is PrometheusExporter.
func NewMetricsExporter(typ MetricsExporterType, interval time.Duration) (ShutdownFunc, http.Handler, error) {
	switch typ {
	case ConsoleExporter:
		shutdown, err := NewConsoleMetricsExporter(interval, interval)
		return shutdown, nil, err
	case PrometheusExporter:
		return NewPrometheusMetricsExporter()
	case NoneExporter, "":
		return nopShutdown, nil, nil
	default:
	}
	return nil, nil, ErrUnknownExporter
}
