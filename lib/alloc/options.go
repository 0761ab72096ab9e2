package alloc

import (
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xalloc/lib/infra"
	"github.com/benz9527/xalloc/lib/xlog"
)

type coreOptions struct {
	name           string
	logger         xlog.XLogger
	meterProvider  metric.MeterProvider
	isStatsEnabled bool
}

type CoreOption func(*coreOptions) error

// WithCoreName names the core in logs and metrics. Defaults to the
// element type name.
func WithCoreName(name string) CoreOption {
	return func(opts *coreOptions) error {
		if len(strings.TrimSpace(name)) == 0 {
			return infra.NewErrorStack("[xalloc] empty core name")
		}
		opts.name = name
		return nil
	}
}

func WithCoreLogger(logger xlog.XLogger) CoreOption {
	return func(opts *coreOptions) error {
		if logger == nil {
			return infra.NewErrorStack("[xalloc] nil core logger")
		}
		opts.logger = logger
		return nil
	}
}

// WithCoreStats enables the allocation counters. The counters are mirrored
// into the global otel meter provider.
func WithCoreStats() CoreOption {
	return func(opts *coreOptions) error {
		opts.isStatsEnabled = true
		return nil
	}
}

// WithCoreMeterProvider enables the stats on the given provider instead of
// the global one.
func WithCoreMeterProvider(mp metric.MeterProvider) CoreOption {
	return func(opts *coreOptions) error {
		if mp == nil {
			return infra.NewErrorStack("[xalloc] nil meter provider")
		}
		opts.meterProvider = mp
		opts.isStatsEnabled = true
		return nil
	}
}
