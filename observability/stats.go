package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type ObservabilityErr string

const (
	ErrUnknownExporter ObservabilityErr = "[observability] unknown metrics exporter"
)

func (err ObservabilityErr) Error() string {
	return string(err)
}

var (
	once    sync.Once
	initErr error
)

func appMeterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xalloc/app/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the goroutine and GOMAXPROCS gauges and the Go
// runtime instrumentation on the global meter provider. Only the first call
// does the work.
func InitAppStats(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	once.Do(func() {
		meter := otel.Meter(
			appMeterName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"app.core.goroutines",
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		))
		lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"app.core.processes",
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		))
		initErr = otelruntime.Start()
	})
	return initErr
}
