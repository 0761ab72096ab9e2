package list

// Note that the linked list is not thread safe. It owns an allocator bound
// to the goroutine using the list, so a list must stay on one goroutine
// until it is closed.

type ListErr string

const (
	ErrListClosed ListErr = "[doubly-linked-list] list has been closed"
)

func (err ListErr) Error() string {
	return string(err)
}

// LinkedList is the doubly linked list interface. Elements are recycled
// through a block pool, an element must not be used after it is removed.
type LinkedList[T comparable] interface {
	Len() int64
	// AppendValue appends the values to the back of list l and returns the new elements.
	AppendValue(values ...T) []*NodeElement[T]
	// InsertAfter inserts a value v as a new element immediately after element dstE and returns new element.
	// If dstE is not an element of l, the value v will not be inserted.
	InsertAfter(v T, dstE *NodeElement[T]) *NodeElement[T]
	// InsertBefore inserts a value v as a new element immediately before element dstE and returns new element.
	// If dstE is not an element of l, the value v will not be inserted.
	InsertBefore(v T, dstE *NodeElement[T]) *NodeElement[T]
	// Remove removes targetE from l and returns its value. The element is
	// recycled and must not be used afterward.
	Remove(targetE *NodeElement[T]) (T, bool)
	// Foreach traverses the list l and executes function fn for each element.
	// If fn returns an error, the traversal stops and returns the error.
	// Removing the visited element inside fn is allowed.
	Foreach(fn func(idx int64, e *NodeElement[T]) error) error
	// ReverseForeach iterates the list in reverse order, calling fn for each element.
	ReverseForeach(fn func(idx int64, e *NodeElement[T]))
	// FindFirst finds the first element that satisfies the compareFn and returns the element and true if found.
	// If compareFn is not provided, it will use the default compare function that compares the value of element.
	FindFirst(v T, compareFn ...func(e *NodeElement[T]) bool) (*NodeElement[T], bool)
	// Front returns the first element of doubly linked list l or nil if the list is empty.
	Front() *NodeElement[T]
	// Back returns the last element of doubly linked list l or nil if the list is empty.
	Back() *NodeElement[T]
	// PushFront inserts a new element e with value v at the front of list l and returns e.
	PushFront(v T) *NodeElement[T]
	// PushBack inserts a new element e with value v at the back of list l and returns e.
	// Insertions return nil when the list is closed or no element can be allocated, see Err.
	PushBack(v T) *NodeElement[T]
	MoveToFront(targetE *NodeElement[T]) bool
	MoveToBack(targetE *NodeElement[T]) bool
	// MoveBefore moves an element srcE in front of element dstE.
	MoveBefore(srcE, dstE *NodeElement[T]) bool
	// MoveAfter moves an element srcE next to element dstE.
	MoveAfter(srcE, dstE *NodeElement[T]) bool
	// Clear removes and recycles every element.
	Clear()
	// Close clears the list and releases the allocator it owns. A closed
	// list refuses new elements.
	Close() error
	// Err returns why the latest insertion returned nil, either ErrListClosed
	// or the allocator error. Nil until an insertion fails.
	Err() error
}
