package alloc

import (
	"unsafe"
)

// Allocator binds a Core to the LocalPool of the goroutine using it. It is
// the element allocator handed to node based containers. Not safe for
// concurrent use, open one Allocator per goroutine.
type Allocator[T any] struct {
	core  *Core[T]
	local *LocalPool[T]
}

var _ PoolAllocator = (*Allocator[int])(nil)

// NewAllocator opens an Allocator on the process-wide Core of T.
func NewAllocator[T any](opts ...CoreOption) *Allocator[T] {
	return For[T](opts...).NewAllocator()
}

func (c *Core[T]) NewAllocator() *Allocator[T] {
	return &Allocator[T]{
		core:  c,
		local: c.NewLocal(),
	}
}

func (a *Allocator[T]) Core() *Core[T] {
	return a.core
}

func (a *Allocator[T]) Local() *LocalPool[T] {
	return a.local
}

func (a *Allocator[T]) Allocate(n int) (*T, error) {
	if a == nil || a.core == nil {
		return nil, ErrNilCore
	}
	return a.core.Allocate(a.local, n)
}

func (a *Allocator[T]) AllocateSlice(n int) ([]T, error) {
	if a == nil || a.core == nil {
		return nil, ErrNilCore
	}
	return a.core.AllocateSlice(a.local, n)
}

// Deallocate stays usable after Close, retiring never needs the LocalPool.
func (a *Allocator[T]) Deallocate(p *T, n int) {
	if a == nil || a.core == nil {
		return
	}
	a.core.Deallocate(p, n)
}

// Close tears the LocalPool down. Further allocations fail with
// ErrLocalPoolClosed.
func (a *Allocator[T]) Close() error {
	if a == nil {
		return nil
	}
	return a.local.Close()
}

func (a *Allocator[T]) ElemSize() uintptr {
	return unsafe.Sizeof(*new(T))
}

func (a *Allocator[T]) ElemAlign() uintptr {
	return unsafe.Alignof(*new(T))
}

func (a *Allocator[T]) PropagateOnMove() bool {
	return true
}

// Equal is always true. Every Allocator of a type shares one pool, and
// storage is only ever released to the pool of its own type.
func (a *Allocator[T]) Equal(other PoolAllocator) bool {
	return true
}

func (a *Allocator[T]) poolAllocator() {}

// Equal reports whether a and b are interchangeable, always true.
func Equal[T, U any](a *Allocator[T], b *Allocator[U]) bool {
	return a.Equal(b)
}
