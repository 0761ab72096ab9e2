package alloc

import "runtime"

// teardownFn observes the outcome of a LocalPool teardown.
type teardownFn func(handedOff bool, blocks int)

// LocalPool is the private block cache of one goroutine. It is never
// touched concurrently, so the head is a plain pointer.
//
// Goroutines have no local storage, a goroutine owns its LocalPool
// explicitly and should Close it when it finishes, the same way a thread
// local cache is destroyed at thread exit. A LocalPool dropped without
// Close runs the same teardown from its finalizer.
type LocalPool[T any] struct {
	shared     *SharedPool[T]
	head       *block[T]
	onTeardown teardownFn
	closed     bool
}

func NewLocalPool[T any](shared *SharedPool[T]) *LocalPool[T] {
	l := &LocalPool[T]{
		shared: shared,
	}
	runtime.SetFinalizer(l, func(l *LocalPool[T]) {
		_ = l.Close()
	})
	return l
}

func (l *LocalPool[T]) current() *block[T] {
	return l.head
}

func (l *LocalPool[T]) set(b *block[T]) {
	l.head = b
}

func (l *LocalPool[T]) Len() int {
	if l == nil {
		return 0
	}
	n := 0
	for b := l.head; b != nil; b = b.next {
		n++
	}
	return n
}

func (l *LocalPool[T]) IsClosed() bool {
	return l == nil || l.closed
}

// Close hands every cached block back to the shared pool. The whole list
// is installed by one CAS if the shared pool is empty, otherwise the blocks
// are pushed one by one. No block is dropped either way.
// Close is idempotent.
func (l *LocalPool[T]) Close() error {
	if l == nil || l.closed {
		return nil
	}
	l.closed = true
	runtime.SetFinalizer(l, nil)
	if l.head == nil {
		return nil
	}

	// Counted before publishing, the list is not ours after the CAS.
	n := l.Len()
	handedOff := l.shared.tryPushAllIfEmpty(l.head)
	if handedOff {
		l.head = nil
	} else {
		for l.head != nil {
			b := l.head
			l.head = b.next
			l.shared.push(b)
		}
	}
	if l.onTeardown != nil {
		l.onTeardown(handedOff, n)
	}
	return nil
}
