package alloc

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// SharedPool is a lock-free singly linked stack of retired blocks, shared
// by all goroutines using the same element type. The head is the only
// shared word, and it is only ever changed by a single CAS or swap, so the
// list observed from any load is acyclic and nil terminated.
//
// There is no single-block pop. Blocks leave the shared pool only in whole
// lists (popAll), which keeps the stack free of the ABA problem.
type SharedPool[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Pointer[block[T]]
	_    cpu.CacheLinePad
}

func NewSharedPool[T any]() *SharedPool[T] {
	return &SharedPool[T]{}
}

func (p *SharedPool[T]) load() *block[T] {
	return p.head.Load()
}

// push links b in front of the list. It spins until the CAS wins.
func (p *SharedPool[T]) push(b *block[T]) {
	expected := p.head.Load()
	for {
		b.next = expected
		if p.head.CompareAndSwap(expected, b) {
			return
		}
		expected = p.head.Load()
	}
}

// tryPushAllIfEmpty installs list as the whole content of the pool, only if
// the pool is empty at the moment of the CAS. It never retries, the caller
// keeps the list on failure.
func (p *SharedPool[T]) tryPushAllIfEmpty(list *block[T]) bool {
	return p.head.CompareAndSwap(nil, list)
}

// popAll detaches the whole list in one step.
func (p *SharedPool[T]) popAll() *block[T] {
	return p.head.Swap(nil)
}

// Len walks the list. The result is exact only while no other goroutine
// is pushing or popping.
func (p *SharedPool[T]) Len() int {
	n := 0
	for b := p.head.Load(); b != nil; b = b.next {
		n++
	}
	return n
}

// Purge releases every retired block back to the Go heap and returns the
// number of blocks released.
func (p *SharedPool[T]) Purge() int {
	n := 0
	for b := p.popAll(); b != nil; n++ {
		next := b.next
		b.next = nil
		b = next
	}
	return n
}
