package list

import (
	"github.com/benz9527/xalloc/lib/alloc"
	"github.com/benz9527/xalloc/lib/infra"
)

var _ LinkedList[struct{}] = (*doublyLinkedList[struct{}])(nil) // Type check assertion

type nodeElementInListStatus uint8

const (
	notInList nodeElementInListStatus = iota
	theOnlyOne
	theFirstButNotTheLast
	theLastButNotTheFirst
	inMiddle
)

// doublyLinkedList is a ring around a sentinel root. The root is a plain
// heap object, only the elements come from the allocator.
type doublyLinkedList[T comparable] struct {
	root          *NodeElement[T]
	allocator     *alloc.Allocator[NodeElement[T]]
	len           int64
	ownsAllocator bool
	closed        bool
	err           error
}

// NewLinkedList returns a list whose elements come from the process-wide
// pool of NodeElement[T]. The options only apply if the pool is created by
// this call.
func NewLinkedList[T comparable](opts ...alloc.CoreOption) LinkedList[T] {
	l := &doublyLinkedList[T]{
		allocator:     alloc.NewAllocator[NodeElement[T]](opts...),
		ownsAllocator: true,
	}
	return l.init()
}

// NewLinkedListWithAllocator returns a list drawing elements from a. The
// caller keeps the ownership of a.
func NewLinkedListWithAllocator[T comparable](a *alloc.Allocator[NodeElement[T]]) LinkedList[T] {
	l := &doublyLinkedList[T]{
		allocator: a,
	}
	return l.init()
}

func (l *doublyLinkedList[T]) init() *doublyLinkedList[T] {
	l.root = &NodeElement[T]{
		listRef: l,
	}
	l.root.next, l.root.prev = l.root, l.root
	l.len = 0
	return l
}

func (l *doublyLinkedList[T]) getRoot() *NodeElement[T] {
	return l.root
}

func (l *doublyLinkedList[T]) getRootHead() *NodeElement[T] {
	return l.root.next
}

func (l *doublyLinkedList[T]) getRootTail() *NodeElement[T] {
	return l.root.prev
}

func (l *doublyLinkedList[T]) Len() int64 {
	if l == nil {
		return 0
	}
	return l.len
}

func (l *doublyLinkedList[T]) checkElement(targetE *NodeElement[T]) nodeElementInListStatus {
	if l == nil || l.len == 0 || targetE == nil || targetE == l.root ||
		targetE.listRef != l || targetE.prev == nil || targetE.next == nil {
		return notInList
	}
	// mem address compare
	if targetE.prev.next != targetE || targetE.next.prev != targetE {
		return notInList
	}
	switch isFirst, isLast := targetE.prev == l.root, targetE.next == l.root; {
	case isFirst && isLast:
		return theOnlyOne
	case isFirst:
		return theFirstButNotTheLast
	case isLast:
		return theLastButNotTheFirst
	}
	return inMiddle
}

func (l *doublyLinkedList[T]) newElement(v T) *NodeElement[T] {
	if l.closed {
		l.err = ErrListClosed
		return nil
	}
	e, err := l.allocator.Allocate(1)
	if err != nil {
		l.err = infra.WrapErrorStackWithMessage(err, "[doubly-linked-list] allocate element")
		return nil
	}
	e.Value = v
	e.listRef = l
	return e
}

// link inserts e immediately after at.
func (l *doublyLinkedList[T]) link(e, at *NodeElement[T]) *NodeElement[T] {
	e.prev = at
	e.next = at.next
	at.next.prev = e
	at.next = e
	return e
}

func (l *doublyLinkedList[T]) unlink(e *NodeElement[T]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}

func (l *doublyLinkedList[T]) insertValue(v T, at *NodeElement[T]) *NodeElement[T] {
	e := l.newElement(v)
	if e == nil {
		return nil
	}
	l.len++
	return l.link(e, at)
}

func (l *doublyLinkedList[T]) AppendValue(values ...T) []*NodeElement[T] {
	if l == nil || len(values) <= 0 {
		return nil
	}
	if l.closed {
		l.err = ErrListClosed
		return nil
	}
	newElements := make([]*NodeElement[T], 0, len(values))
	for _, v := range values {
		e := l.insertValue(v, l.getRootTail())
		if e == nil {
			break
		}
		newElements = append(newElements, e)
	}
	return newElements
}

func (l *doublyLinkedList[T]) InsertAfter(v T, dstE *NodeElement[T]) *NodeElement[T] {
	if l.checkElement(dstE) == notInList {
		return nil
	}
	return l.insertValue(v, dstE)
}

func (l *doublyLinkedList[T]) InsertBefore(v T, dstE *NodeElement[T]) *NodeElement[T] {
	if l.checkElement(dstE) == notInList {
		return nil
	}
	return l.insertValue(v, dstE.prev)
}

func (l *doublyLinkedList[T]) PushFront(v T) *NodeElement[T] {
	if l == nil || l.root == nil {
		return nil
	}
	return l.insertValue(v, l.getRoot())
}

func (l *doublyLinkedList[T]) PushBack(v T) *NodeElement[T] {
	if l == nil || l.root == nil {
		return nil
	}
	return l.insertValue(v, l.getRootTail())
}

func (l *doublyLinkedList[T]) Remove(targetE *NodeElement[T]) (T, bool) {
	var zero T
	if l.checkElement(targetE) == notInList {
		return zero, false
	}
	v := targetE.Value
	l.unlink(targetE)
	l.len--
	// The allocator zeroes the element, listRef included.
	l.allocator.Deallocate(targetE, 1)
	return v, true
}

func (l *doublyLinkedList[T]) Front() *NodeElement[T] {
	if l == nil || l.root == nil || l.len == 0 {
		return nil
	}
	return l.getRootHead()
}

func (l *doublyLinkedList[T]) Back() *NodeElement[T] {
	if l == nil || l.root == nil || l.len == 0 {
		return nil
	}
	return l.getRootTail()
}

// move relinks src after dst, or before dst if before is set.
func (l *doublyLinkedList[T]) move(src, dst *NodeElement[T], before bool) bool {
	if src == dst {
		return false
	}
	l.unlink(src)
	at := dst
	if before {
		at = dst.prev
	}
	l.link(src, at)
	return true
}

func (l *doublyLinkedList[T]) MoveToFront(targetE *NodeElement[T]) bool {
	switch l.checkElement(targetE) {
	case notInList, theOnlyOne, theFirstButNotTheLast:
		return false
	default:
	}
	return l.move(targetE, l.root, false)
}

func (l *doublyLinkedList[T]) MoveToBack(targetE *NodeElement[T]) bool {
	switch l.checkElement(targetE) {
	case notInList, theOnlyOne, theLastButNotTheFirst:
		return false
	default:
	}
	return l.move(targetE, l.root, true)
}

func (l *doublyLinkedList[T]) MoveBefore(srcE, dstE *NodeElement[T]) bool {
	if l.checkElement(srcE) == notInList || l.checkElement(dstE) == notInList ||
		dstE.prev == srcE {
		return false
	}
	return l.move(srcE, dstE, true)
}

func (l *doublyLinkedList[T]) MoveAfter(srcE, dstE *NodeElement[T]) bool {
	if l.checkElement(srcE) == notInList || l.checkElement(dstE) == notInList ||
		dstE.next == srcE {
		return false
	}
	return l.move(srcE, dstE, false)
}

// Foreach, allows remove linked list elements while iterating.
func (l *doublyLinkedList[T]) Foreach(fn func(idx int64, e *NodeElement[T]) error) error {
	if l == nil || l.root == nil || fn == nil || l.len == 0 {
		return nil
	}

	var (
		iterator       = l.getRootHead()
		idx      int64 = 0
	)
	for iterator != l.getRoot() {
		n := iterator.next
		if err := fn(idx, iterator); err != nil {
			return infra.WrapErrorStackWithMessage(err, "[doubly-linked-list] foreach stopped")
		}
		iterator = n
		idx++
	}
	return nil
}

// ReverseForeach, allows remove linked list elements while iterating.
func (l *doublyLinkedList[T]) ReverseForeach(fn func(idx int64, e *NodeElement[T])) {
	if l == nil || l.root == nil || fn == nil || l.len == 0 {
		return
	}

	var (
		iterator       = l.getRootTail()
		idx      int64 = 0
	)
	for iterator != l.getRoot() {
		p := iterator.prev
		fn(idx, iterator)
		iterator = p
		idx++
	}
}

func (l *doublyLinkedList[T]) FindFirst(targetV T, compareFn ...func(e *NodeElement[T]) bool) (*NodeElement[T], bool) {
	if l == nil || l.root == nil || l.len == 0 {
		return nil, false
	}

	if len(compareFn) <= 0 || compareFn[0] == nil {
		compareFn = []func(e *NodeElement[T]) bool{
			func(e *NodeElement[T]) bool {
				return e.Value == targetV
			},
		}
	}

	for iterator := l.getRootHead(); iterator != l.getRoot(); iterator = iterator.next {
		if compareFn[0](iterator) {
			return iterator, true
		}
	}
	return nil, false
}

func (l *doublyLinkedList[T]) Clear() {
	if l == nil || l.root == nil {
		return
	}
	for iterator := l.getRootHead(); iterator != l.getRoot(); {
		n := iterator.next
		l.allocator.Deallocate(iterator, 1)
		iterator = n
	}
	l.root.next, l.root.prev = l.root, l.root
	l.len = 0
}

func (l *doublyLinkedList[T]) Close() error {
	if l == nil || l.closed {
		return nil
	}
	l.Clear()
	l.closed = true
	if !l.ownsAllocator {
		return nil
	}
	return infra.WrapErrorStack(l.allocator.Close())
}

func (l *doublyLinkedList[T]) Err() error {
	if l == nil {
		return nil
	}
	return l.err
}
