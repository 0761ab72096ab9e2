package kv

type SafeStoreKeyFilterFunc[K comparable] func(key K) bool

func defaultAllKeysFilter[K comparable](key K) bool {
	return true
}

type ThreadSafeStorer[K comparable, V any] interface {
	// Purge drops all items. Items implementing io.Closer are closed first
	// if the closeable item check is enabled.
	Purge() error
	AddOrUpdate(key K, obj V)
	// LoadOrStore returns the existing value for key if present. Otherwise,
	// it stores and returns the value made by newFn. The loaded result is
	// true if the value was loaded.
	LoadOrStore(key K, newFn func() V) (actual V, loaded bool)
	Get(key K) (item V, exists bool)
	Len() int
	ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K
}
