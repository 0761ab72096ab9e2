// Package bench drives a node churn workload through the recycling
// allocator and reports throughput, pool counters and RSS.
package bench

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xalloc/lib/alloc"
	"github.com/benz9527/xalloc/lib/infra"
	xruntime "github.com/benz9527/xalloc/lib/runtime"
	"github.com/benz9527/xalloc/lib/xlog"
)

type BenchErr string

const (
	ErrInvalidConfig BenchErr = "[bench] invalid config"
	ErrUnknownOrder  BenchErr = "[bench] unknown release order"
)

func (err BenchErr) Error() string {
	return string(err)
}

// Order is the order a task releases its batch in.
type Order string

const (
	LIFO Order = "lifo"
	FIFO Order = "fifo"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case LIFO, FIFO:
		return o, nil
	default:
	}
	return "", infra.WrapErrorStackWithMessage(ErrUnknownOrder, s)
}

type Config struct {
	Workers int // ants pool size
	Tasks   int // tasks submitted, each owns one allocator
	Rounds  int // allocate/release rounds per task
	Batch   int // nodes held at once per round
	Order   Order
	// Baseline runs the same workload on plain new(T).
	Baseline bool
}

func DefaultConfig() Config {
	return Config{
		Workers: 8,
		Tasks:   64,
		Rounds:  100,
		Batch:   256,
		Order:   LIFO,
	}
}

func (cfg Config) validate() error {
	if cfg.Workers <= 0 || cfg.Tasks <= 0 || cfg.Rounds <= 0 || cfg.Batch <= 0 {
		return ErrInvalidConfig
	}
	if cfg.Order != LIFO && cfg.Order != FIFO {
		return ErrUnknownOrder
	}
	return nil
}

type Report struct {
	Config    Config
	Ops       int64 // single element allocations
	Duration  time.Duration
	OpsPerSec float64
	Stats     alloc.Snapshot
	RSSBefore uint64
	RSSAfter  uint64
	Env       xruntime.Env
}

func (r Report) zapFields() []zap.Field {
	return []zap.Field{
		zap.String("order", string(r.Config.Order)),
		zap.Bool("baseline", r.Config.Baseline),
		zap.Int64("ops", r.Ops),
		zap.Duration("duration", r.Duration),
		zap.Float64("opsPerSec", r.OpsPerSec),
		zap.Int64("recycled", r.Stats.Recycled),
		zap.Int64("fallback", r.Stats.Fallback),
		zap.Int64("refills", r.Stats.Refills),
		zap.Int64("handBacks", r.Stats.HandBacks),
		zap.Uint64("rssBefore", r.RSSBefore),
		zap.Uint64("rssAfter", r.RSSAfter),
		zap.Int("gomaxprocs", r.Env.GoMaxProcs),
		zap.Bool("container", r.Env.Container),
	}
}

type node struct {
	id      int64
	payload [6]int64
	next    *node
}

// source abstracts where a task gets its nodes from.
type source interface {
	get() (*node, error)
	put(n *node)
	close() error
}

type poolSource struct {
	a *alloc.Allocator[node]
}

func (s *poolSource) get() (*node, error) { return s.a.Allocate(1) }
func (s *poolSource) put(n *node)         { s.a.Deallocate(n, 1) }
func (s *poolSource) close() error        { return s.a.Close() }

type heapSource struct{}

func (heapSource) get() (*node, error) { return new(node), nil }
func (heapSource) put(*node)           {}
func (heapSource) close() error        { return nil }

func rss() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return 0
	}
	return mem.RSS
}

// runTask allocates cfg.Batch nodes per round, checks nobody else wrote
// to them and releases them in cfg.Order. Returns the allocation count.
func runTask(ctx context.Context, cfg Config, id int64, src source) (ops int64, err error) {
	defer func() {
		err = multierr.Append(err, src.close())
	}()

	held := make([]*node, 0, cfg.Batch)
	fifo := queue.New()
	for r := 0; r < cfg.Rounds; r++ {
		if err := ctx.Err(); err != nil {
			return ops, err
		}
		for i := 0; i < cfg.Batch; i++ {
			n, err := src.get()
			if err != nil {
				return ops, err
			}
			ops++
			n.id = id
			n.payload[0] = int64(i)
			held = append(held, n)
		}
		for i, n := range held {
			if n.id != id || n.payload[0] != int64(i) {
				return ops, infra.NewErrorStack("[bench] node shared between live owners")
			}
		}
		switch cfg.Order {
		case FIFO:
			for _, n := range held {
				fifo.Add(n)
			}
			for fifo.Length() > 0 {
				src.put(fifo.Remove().(*node))
			}
		default:
			for i := len(held) - 1; i >= 0; i-- {
				src.put(held[i])
			}
		}
		held = held[:0]
	}
	return ops, nil
}

// Run executes the workload on an ants pool of cfg.Workers goroutines.
// All tasks share one core, each task opens its own allocator on it and
// closes it when done.
func Run(ctx context.Context, cfg Config, logger xlog.XLogger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	if logger == nil {
		logger = xlog.NewNopXLogger()
	}
	logger = logger.Named("bench")

	core, err := alloc.NewCore[node](
		alloc.WithCoreName("bench"),
		alloc.WithCoreLogger(logger),
		alloc.WithCoreStats(),
	)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = core.Close() }()

	pool, err := ants.NewPool(cfg.Workers,
		ants.WithLogger(xlog.NewAntsXLogger(logger)),
		ants.WithPanicHandler(func(p any) {
			logger.Error(nil, "bench task panic", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return Report{}, infra.WrapErrorStackWithMessage(err, "[bench] new ants pool")
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		lock   sync.Mutex
		merr   error
		taskID atomic.Int64
		ops    = make([]int64, cfg.Tasks)
	)
	report := Report{Config: cfg, RSSBefore: rss(), Env: xruntime.Detect()}
	start := time.Now()
	for i := 0; i < cfg.Tasks; i++ {
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			var src source = heapSource{}
			if !cfg.Baseline {
				src = &poolSource{a: core.NewAllocator()}
			}
			n, err := runTask(ctx, cfg, taskID.Add(1), src)
			ops[i] = n
			if err != nil {
				lock.Lock()
				merr = multierr.Append(merr, err)
				lock.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			lock.Lock()
			merr = multierr.Append(merr, submitErr)
			lock.Unlock()
			break
		}
	}
	wg.Wait()

	report.Duration = time.Since(start)
	report.Ops = lo.Sum(ops)
	if secs := report.Duration.Seconds(); secs > 0 {
		report.OpsPerSec = float64(report.Ops) / secs
	}
	report.Stats = core.Stats()
	report.RSSAfter = rss()

	if merr != nil {
		logger.ErrorStack(merr, "bench failed", report.zapFields()...)
		return report, merr
	}
	logger.Info("bench finished", report.zapFields()...)
	return report, nil
}
