package kv

import (
	"io"
	"sync"

	"go.uber.org/multierr"

	"github.com/benz9527/xalloc/lib/infra"
)

var _ ThreadSafeStorer[string, int] = (*threadSafeMap[string, int])(nil)

type threadSafeMap[K comparable, V any] struct {
	lock           sync.RWMutex
	items          map[K]V
	initCap        uint32
	isClosableItem bool
}

func (t *threadSafeMap[K, V]) AddOrUpdate(key K, obj V) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.items[key] = obj
}

func (t *threadSafeMap[K, V]) LoadOrStore(key K, newFn func() V) (V, bool) {
	t.lock.RLock()
	item, exists := t.items[key]
	t.lock.RUnlock()
	if exists {
		return item, true
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	// Double check, another writer may win the race.
	if item, exists = t.items[key]; exists {
		return item, true
	}
	item = newFn()
	t.items[key] = item
	return item, false
}

func (t *threadSafeMap[K, V]) Get(key K) (item V, exists bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	item, exists = t.items[key]
	return
}

func (t *threadSafeMap[K, V]) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.items)
}

func (t *threadSafeMap[K, V]) ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K {
	realFilters := make([]SafeStoreKeyFilterFunc[K], 0, len(filters))
	for _, filter := range filters {
		if filter != nil {
			realFilters = append(realFilters, filter)
		}
	}
	if len(realFilters) == 0 {
		realFilters = append(realFilters, defaultAllKeysFilter[K])
	}

	t.lock.RLock()
	defer t.lock.RUnlock()

	keys := make([]K, 0, len(t.items))
	for key := range t.items {
		for _, filter := range realFilters {
			if filter(key) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

func (t *threadSafeMap[K, V]) Purge() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	var merr error
	if t.isClosableItem {
		for _, item := range t.items {
			if closer, ok := any(item).(io.Closer); ok && closer != nil {
				merr = multierr.Append(merr, closer.Close())
			}
		}
	}
	t.items = make(map[K]V, t.initCap)
	return infra.WrapErrorStackWithMessage(merr, "[kv] purge closeable items")
}

type ThreadSafeMapOption[K comparable, V any] func(*threadSafeMap[K, V])

func WithThreadSafeMapInitCap[K comparable, V any](capacity uint32) ThreadSafeMapOption[K, V] {
	return func(m *threadSafeMap[K, V]) {
		m.initCap = capacity
	}
}

// WithThreadSafeMapCloseableItemCheck closes the io.Closer items on Purge.
func WithThreadSafeMapCloseableItemCheck[K comparable, V any]() ThreadSafeMapOption[K, V] {
	return func(m *threadSafeMap[K, V]) {
		m.isClosableItem = true
	}
}

func NewThreadSafeMap[K comparable, V any](opts ...ThreadSafeMapOption[K, V]) ThreadSafeStorer[K, V] {
	m := &threadSafeMap[K, V]{initCap: 32}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}
	m.items = make(map[K]V, m.initCap)
	return m
}
