// Package alloc recycles fixed-size blocks of one element type through
// a lock-free shared free list and per-goroutine local caches.
//
// Single element allocations are served from retired blocks whenever
// possible, multi-element allocations always go to the Go heap.
//
// Usage:
//
//	a := alloc.NewAllocator[node]()
//	defer a.Close()
//	n, err := a.Allocate(1)
//	...
//	a.Deallocate(n, 1)
//
// An Allocator (and the LocalPool behind it) belongs to exactly one
// goroutine. Blocks may be deallocated from any goroutine.
package alloc

type AllocErr string

const (
	ErrInvalidCount     AllocErr = "[xalloc] element count must be positive"
	ErrOutOfMemory      AllocErr = "[xalloc] out of memory"
	ErrNilCore          AllocErr = "[xalloc] nil core"
	ErrNilLocalPool     AllocErr = "[xalloc] nil local pool"
	ErrForeignLocalPool AllocErr = "[xalloc] local pool belongs to another shared pool"
	ErrLocalPoolClosed  AllocErr = "[xalloc] local pool has been closed"
)

func (err AllocErr) Error() string {
	return string(err)
}

// PoolAllocator is the element type erased view of an Allocator. It carries
// the metadata generic containers need to decide whether two allocators
// are interchangeable.
type PoolAllocator interface {
	ElemSize() uintptr
	ElemAlign() uintptr
	// PropagateOnMove reports that the allocator must travel with the
	// container when the container is moved.
	PropagateOnMove() bool
	// Equal reports whether memory allocated by one can be released by
	// the other. Always true.
	Equal(other PoolAllocator) bool

	poolAllocator()
}
