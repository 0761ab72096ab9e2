package alloc

import (
	"io"
	"reflect"

	"github.com/benz9527/xalloc/lib/kv"
)

// cores holds the process-wide Core of every element type in use.
var cores = kv.NewThreadSafeMap[reflect.Type, io.Closer](
	kv.WithThreadSafeMapInitCap[reflect.Type, io.Closer](16),
	kv.WithThreadSafeMapCloseableItemCheck[reflect.Type, io.Closer](),
)

// For returns the process-wide Core of T, creating it on first use. The
// options only apply to the call that creates it. Invalid options panic.
func For[T any](opts ...CoreOption) *Core[T] {
	c, _ := cores.LoadOrStore(reflect.TypeFor[T](), func() io.Closer {
		return MustNewCore[T](opts...)
	})
	return c.(*Core[T])
}

// Shutdown purges the shared pool of every registered Core and forgets
// them. Allocators still holding a Core keep working on it.
func Shutdown() error {
	return cores.Purge()
}
