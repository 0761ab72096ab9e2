package alloc

import (
	"unsafe"
)

// block is the storage cell of exactly one T. The elem must stay the first
// field, so the *T handed out and the *block[T] share the same address.
// While retired, only next is meaningful.
type block[T any] struct {
	elem T
	next *block[T]
}

// blockOf is only valid for pointers handed out by a single element
// allocation.
func blockOf[T any](p *T) *block[T] {
	return (*block[T])(unsafe.Pointer(p))
}

func (b *block[T]) ptr() *T {
	return &b.elem
}

// reset drops the caller's references kept in elem before the block
// is parked in a pool.
func (b *block[T]) reset() {
	var zero T
	b.elem = zero
}
