package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xalloc/bench"
	"github.com/benz9527/xalloc/lib/infra"
	xruntime "github.com/benz9527/xalloc/lib/runtime"
	"github.com/benz9527/xalloc/lib/xlog"
	"github.com/benz9527/xalloc/observability"
)

type options struct {
	bench          bench.Config
	metrics        observability.MetricsExporterType
	metricsPeriod  time.Duration
	listen         string
	linger         time.Duration
	logLevel       xlog.LogLevel
	logPlainText   bool
	disableMaxProc bool
}

func parseFlags(name string, args []string) (options, error) {
	var (
		opts    = options{bench: bench.DefaultConfig()}
		order   string
		metrics string
		level   string
		fs      = pflag.NewFlagSet(name, pflag.ContinueOnError)
	)
	fs.IntVarP(&opts.bench.Workers, "workers", "w", opts.bench.Workers, "ants pool size")
	fs.IntVarP(&opts.bench.Tasks, "tasks", "t", opts.bench.Tasks, "tasks to submit, each owns one allocator")
	fs.IntVarP(&opts.bench.Rounds, "rounds", "r", opts.bench.Rounds, "allocate/release rounds per task")
	fs.IntVarP(&opts.bench.Batch, "batch", "b", opts.bench.Batch, "nodes held per round")
	fs.StringVar(&order, "order", string(opts.bench.Order), "release order, lifo or fifo")
	fs.BoolVar(&opts.bench.Baseline, "baseline", false, "allocate with new(T) instead of the pool")
	fs.StringVar(&metrics, "metrics", string(observability.NoneExporter), "metrics exporter, none, console or prometheus")
	fs.DurationVar(&opts.metricsPeriod, "metrics-period", 5*time.Second, "console exporter period")
	fs.StringVar(&opts.listen, "listen", ":9464", "prometheus /metrics listen address")
	fs.DurationVar(&opts.linger, "linger", 0, "keep serving metrics after the workload")
	fs.StringVar(&level, "log-level", string(xlog.LogLevelInfo), "DEBUG, INFO, WARN or ERROR")
	fs.BoolVar(&opts.logPlainText, "log-plain", false, "plain text logs instead of JSON")
	fs.BoolVar(&opts.disableMaxProc, "no-automaxprocs", false, "keep GOMAXPROCS as is")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var err error
	if opts.bench.Order, err = bench.ParseOrder(order); err != nil {
		return options{}, err
	}
	switch m := observability.MetricsExporterType(metrics); m {
	case observability.NoneExporter, observability.ConsoleExporter, observability.PrometheusExporter:
		opts.metrics = m
	default:
		return options{}, infra.WrapErrorStackWithMessage(observability.ErrUnknownExporter, metrics)
	}
	switch l := xlog.LogLevel(level); l {
	case xlog.LogLevelDebug, xlog.LogLevelInfo, xlog.LogLevelWarn, xlog.LogLevelError:
		opts.logLevel = l
	default:
		return options{}, infra.NewErrorStack("[xallocbench] unknown log level " + level)
	}
	return opts, nil
}

func newLogger(opts options) xlog.XLogger {
	enc := xlog.JSON
	if opts.logPlainText {
		enc = xlog.PlainText
	}
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(opts.logLevel),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(xlog.StdErr),
	)
}

// runner owns the workload and the metrics surface of one app run.
type runner struct {
	opts       options
	logger     xlog.XLogger
	shutdowner fx.Shutdowner

	cancel   context.CancelFunc
	done     sync.WaitGroup
	server   *http.Server
	shutdown observability.ShutdownFunc
	err      error
}

func (r *runner) start(ctx context.Context) error {
	r.logger.Info("environment", xruntime.Detect().ZapFields()...)
	shutdown, handler, err := observability.NewMetricsExporter(r.opts.metrics, r.opts.metricsPeriod)
	if err != nil {
		return err
	}
	r.shutdown = shutdown
	if err = observability.InitAppStats(ctx, "xallocbench"); err != nil {
		return err
	}

	if handler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		ln, err := net.Listen("tcp", r.opts.listen)
		if err != nil {
			return infra.WrapErrorStackWithMessage(err, "[xallocbench] listen")
		}
		r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error(err, "metrics server stopped")
			}
		}()
		r.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done.Add(1)
	go func() {
		defer r.done.Done()
		_, r.err = bench.Run(runCtx, r.opts.bench, r.logger)
		exitCode := 0
		if r.err != nil {
			exitCode = 1
		}
		if r.opts.linger > 0 && r.err == nil {
			select {
			case <-time.After(r.opts.linger):
			case <-runCtx.Done():
				return
			}
		}
		if err := r.shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
			r.logger.Error(err, "app shutdown")
		}
	}()
	return nil
}

func (r *runner) stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	r.done.Wait()
	var merr error
	if r.server != nil {
		merr = multierr.Append(merr, r.server.Shutdown(ctx))
	}
	if r.shutdown != nil {
		merr = multierr.Append(merr, r.shutdown(ctx))
	}
	// Syncing a console writer may fail on some platforms.
	_ = r.logger.Sync()
	return merr
}

func newRunner(lc fx.Lifecycle, sd fx.Shutdowner, opts options, logger xlog.XLogger) *runner {
	r := &runner{
		opts:       opts,
		logger:     logger.Named("xallocbench"),
		shutdowner: sd,
	}
	lc.Append(fx.Hook{
		OnStart: r.start,
		OnStop:  r.stop,
	})
	return r
}

func newApp(opts options, logger xlog.XLogger, extra ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(opts),
		fx.Provide(func() xlog.XLogger { return logger }),
		fx.Provide(newRunner),
		fx.Invoke(func(*runner) {}),
	}, extra...)...)
}
