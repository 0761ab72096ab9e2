package alloc

import (
	"math/bits"
	"reflect"
	"unsafe"

	"go.uber.org/zap"

	"github.com/benz9527/xalloc/lib/infra"
	"github.com/benz9527/xalloc/lib/xlog"
)

// maxAllocBytes is the largest request handed to the Go heap, the same
// arena limit the runtime uses (2^47 on 64-bit, 2^31 on 32-bit).
const maxAllocBytes = uint64(1) << (31 + (bits.UintSize/64)*16)

// Core coordinates the shared pool of one element type with the local pools
// of the goroutines allocating from it. The Core keeps no per-goroutine
// state, every allocation names the LocalPool of its caller.
type Core[T any] struct {
	opts     *coreOptions
	shared   *SharedPool[T]
	stats    *coreStats
	logger   xlog.XLogger
	elemSize uintptr
}

func NewCore[T any](opts ...CoreOption) (*Core[T], error) {
	c := &Core[T]{
		opts: &coreOptions{
			name: reflect.TypeFor[T]().String(),
		},
		shared:   NewSharedPool[T](),
		elemSize: unsafe.Sizeof(*new(T)),
	}
	for _, o := range opts {
		if err := o(c.opts); err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "[xalloc] invalid core option")
		}
	}
	if c.opts.logger == nil {
		c.opts.logger = xlog.NewNopXLogger()
	}
	c.logger = c.opts.logger.Named("xalloc")
	if c.opts.isStatsEnabled {
		c.stats = newCoreStats(c.opts.name, c.opts.meterProvider)
	}
	c.logger.Debug("core created",
		zap.String("pool", c.opts.name),
		zap.Uintptr("elemSize", c.elemSize),
		zap.Bool("stats", c.opts.isStatsEnabled),
	)
	return c, nil
}

func MustNewCore[T any](opts ...CoreOption) *Core[T] {
	c, err := NewCore[T](opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Core[T]) Name() string {
	return c.opts.name
}

func (c *Core[T]) Shared() *SharedPool[T] {
	return c.shared
}

func (c *Core[T]) Stats() Snapshot {
	return c.stats.snapshot()
}

// NewLocal returns a LocalPool bound to this core's shared pool. It belongs
// to the calling goroutine until it is closed.
func (c *Core[T]) NewLocal() *LocalPool[T] {
	local := NewLocalPool[T](c.shared)
	local.onTeardown = func(handedOff bool, blocks int) {
		c.stats.recordTeardown(handedOff, blocks)
		c.logger.Debug("local pool teardown",
			zap.String("pool", c.opts.name),
			zap.Bool("handedOff", handedOff),
			zap.Int("blocks", blocks),
		)
	}
	return local
}

// Close releases the retired blocks of the shared pool to the Go heap.
// The core stays usable afterwards.
func (c *Core[T]) Close() error {
	n := c.shared.Purge()
	c.logger.Debug("shared pool purged",
		zap.String("pool", c.opts.name),
		zap.Int("blocks", n),
	)
	return nil
}

func (c *Core[T]) checkLocal(local *LocalPool[T]) error {
	if local == nil {
		return ErrNilLocalPool
	}
	if local.shared != c.shared {
		return ErrForeignLocalPool
	}
	if local.closed {
		return ErrLocalPoolClosed
	}
	return nil
}

// refill moves the whole shared list into an empty local pool.
func (c *Core[T]) refill(local *LocalPool[T]) {
	if local.current() != nil {
		return
	}
	if list := c.shared.popAll(); list != nil {
		local.set(list)
		c.stats.recordRefill()
	}
}

// reuse pops the local head, nil if the local pool is empty.
func (c *Core[T]) reuse(local *LocalPool[T]) *block[T] {
	b := local.current()
	if b == nil {
		return nil
	}
	local.set(b.next)
	b.next = nil
	return b
}

// handBack publishes the local remainder if the shared pool is empty, so
// other goroutines can see it.
func (c *Core[T]) handBack(local *LocalPool[T]) {
	rest := local.current()
	if rest == nil {
		return
	}
	if c.shared.tryPushAllIfEmpty(rest) {
		local.set(nil)
		c.stats.recordHandBack()
	}
}

func (c *Core[T]) retire(b *block[T]) {
	b.reset()
	c.shared.push(b)
}

func (c *Core[T]) allocateSystem(n int) ([]T, error) {
	if c.elemSize > 0 && uint64(n) > maxAllocBytes/uint64(c.elemSize) {
		return nil, infra.WrapErrorStackWithMessage(ErrOutOfMemory, "[xalloc] request exceeds the addressable heap")
	}
	return make([]T, n), nil
}

// Allocate returns storage for n elements. A single element comes from the
// retired blocks of local, refilled from the shared pool when local is
// empty, and from the Go heap when both pools are empty. Multi-element
// requests always go to the Go heap and never touch the pools.
//
// The returned storage is zeroed. A single element must be released with
// Deallocate(p, 1) and multi-element storage with the same n.
func (c *Core[T]) Allocate(local *LocalPool[T], n int) (*T, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	if n != 1 {
		s, err := c.allocateSystem(n)
		if err != nil {
			return nil, err
		}
		c.stats.recordBulk()
		return &s[0], nil
	}
	b, err := c.allocateBlock(local)
	if err != nil {
		return nil, err
	}
	return b.ptr(), nil
}

// AllocateSlice is Allocate returning the n elements as a slice. The slice
// must be released with Deallocate(&s[0], n).
func (c *Core[T]) AllocateSlice(local *LocalPool[T], n int) ([]T, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	if n != 1 {
		s, err := c.allocateSystem(n)
		if err != nil {
			return nil, err
		}
		c.stats.recordBulk()
		return s, nil
	}
	b, err := c.allocateBlock(local)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice(b.ptr(), 1), nil
}

func (c *Core[T]) allocateBlock(local *LocalPool[T]) (*block[T], error) {
	if err := c.checkLocal(local); err != nil {
		return nil, err
	}
	c.refill(local)
	b := c.reuse(local)
	c.handBack(local)
	if b != nil {
		c.stats.recordRecycled()
		return b, nil
	}
	c.stats.recordFallback()
	return new(block[T]), nil
}

// Deallocate releases storage obtained from Allocate with the same n.
// A single element is retired straight into the shared pool from any
// goroutine, multi-element storage is left to the GC.
// Passing a pointer not obtained from Allocate(…, 1) with n == 1, or
// releasing the same pointer twice, corrupts the pool.
func (c *Core[T]) Deallocate(p *T, n int) {
	if p == nil || n < 1 {
		return
	}
	if n != 1 {
		c.stats.recordBulkReleased()
		return
	}
	c.retire(blockOf(p))
	c.stats.recordRetired()
}
