package list

// NodeElement storage comes from the block pool of its element type. It is
// zeroed when recycled.
type NodeElement[T comparable] struct {
	prev, next *NodeElement[T]
	listRef    *doublyLinkedList[T]
	Value      T // The type of value may be a small size type.
	// It should be placed at the end of the struct to avoid taking too much padding.
}

func (e *NodeElement[T]) HasNext() bool {
	if e == nil || e.listRef == nil {
		return false
	}
	return e.next != nil && e.next != e.listRef.getRoot()
}

func (e *NodeElement[T]) HasPrev() bool {
	if e == nil || e.listRef == nil {
		return false
	}
	return e.prev != nil && e.prev != e.listRef.getRoot()
}

// Next returns the next element or nil.
func (e *NodeElement[T]) Next() *NodeElement[T] {
	if !e.HasNext() {
		return nil
	}
	return e.next
}

// Prev returns the previous element or nil.
func (e *NodeElement[T]) Prev() *NodeElement[T] {
	if !e.HasPrev() {
		return nil
	}
	return e.prev
}
