package list

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xalloc/lib/alloc"
)

func TestLinkedList_AppendValue(t *testing.T) {
	dlist := NewLinkedList[int]()
	elements := dlist.AppendValue(1, 2, 3, 4, 5)
	assert.Equal(t, len(elements), 5)
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		t.Logf("index: %d, e: %v", idx, e)
		assert.Equal(t, elements[idx], e)
		t.Logf("addr: %p, return addr: %p", elements[idx], e)
		return nil
	}))

	dlist2 := list.New()
	dlist2.PushBack(1)
	dlist2.PushBack(2)
	dlist2.PushBack(3)
	dlist2.PushBack(4)
	dlist2.PushBack(5)

	assert.Equal(t, dlist.Len(), int64(dlist2.Len()))

	dlistItr := dlist.Front()
	dlist2Itr := dlist2.Front()
	for dlist2Itr != nil {
		assert.Equal(t, dlistItr.Value, dlist2Itr.Value)
		dlist2Itr = dlist2Itr.Next()
		dlistItr = dlistItr.Next()
	}
}

func TestDoublyLinkedList_InsertBefore(t *testing.T) {
	dlist := NewLinkedList[int]()
	elements := dlist.AppendValue(1)
	_2n := dlist.InsertBefore(2, elements[0])
	_3n := dlist.InsertBefore(3, _2n)
	_4n := dlist.InsertBefore(4, _3n)
	dlist.InsertBefore(5, _4n)
	assert.Equal(t, int64(5), dlist.Len())

	dlist2 := list.New()
	_1n_2 := dlist2.PushBack(1)
	_2n_2 := dlist2.InsertBefore(2, _1n_2)
	_3n_2 := dlist2.InsertBefore(3, _2n_2)
	_4n_2 := dlist2.InsertBefore(4, _3n_2)
	dlist2.InsertBefore(5, _4n_2)

	assert.Equal(t, dlist.Len(), int64(dlist2.Len()))

	dlistItr := dlist.Front()
	dlist2Itr := dlist2.Front()
	for dlist2Itr != nil {
		assert.Equal(t, dlistItr.Value, dlist2Itr.Value)
		dlist2Itr = dlist2Itr.Next()
		dlistItr = dlistItr.Next()
	}
}

func TestDoublyLinkedList_InsertAfter(t *testing.T) {
	dlist := NewLinkedList[int]()
	elements := dlist.AppendValue(1)
	_2n := dlist.InsertAfter(2, elements[0])
	_3n := dlist.InsertAfter(3, _2n)
	_4n := dlist.InsertAfter(4, _3n)
	dlist.InsertAfter(5, _4n)
	assert.Equal(t, int64(5), dlist.Len())

	dlist2 := list.New()
	_1n_2 := dlist2.PushBack(1)
	_2n_2 := dlist2.InsertAfter(2, _1n_2)
	_3n_2 := dlist2.InsertAfter(3, _2n_2)
	_4n_2 := dlist2.InsertAfter(4, _3n_2)
	dlist2.InsertAfter(5, _4n_2)

	assert.Equal(t, dlist.Len(), int64(dlist2.Len()))

	dlistItr := dlist.Front()
	dlist2Itr := dlist2.Front()
	for dlist2Itr != nil {
		assert.Equal(t, dlistItr.Value, dlist2Itr.Value)
		dlist2Itr = dlist2Itr.Next()
		dlistItr = dlistItr.Next()
	}
}

func TestLinkedList_AppendValueThenRemove(t *testing.T) {
	t.Log("test linked list append value")
	dlist := NewLinkedList[int]()
	dlist2 := list.New()
	checkItems := func() {
		dlistItr := dlist.Front()
		dlist2Itr := dlist2.Front()
		for dlist2Itr != nil {
			require.Equal(t, dlistItr.Value, dlist2Itr.Value)
			dlist2Itr = dlist2Itr.Next()
			dlistItr = dlistItr.Next()
		}
	}

	elements := dlist.AppendValue(1, 2, 3, 4, 5)
	require.Equal(t, len(elements), 5)
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Same(t, elements[idx], e)
		addr1, addr2 := fmt.Sprintf("%p", elements[idx]), fmt.Sprintf("%p", e)
		require.Equal(t, addr1, addr2)
		return nil
	}))

	dlist2.PushBack(1)
	dlist2.PushBack(2)
	_3n := dlist2.PushBack(3)
	dlist2.PushBack(4)
	dlist2.PushBack(5)
	assert.Equal(t, dlist.Len(), int64(dlist2.Len()))
	checkItems()

	t.Log("test linked list remove middle")
	dlist.Remove(elements[2])
	dlist2.Remove(_3n)
	checkItems()

	t.Log("test linked list remove head")
	dlist.Remove(dlist.Front())
	dlist2.Remove(dlist2.Front())
	checkItems()

	t.Log("test linked list remove tail")
	dlist.Remove(dlist.Back())
	dlist2.Remove(dlist2.Back())
	checkItems()

	t.Log("test linked list remove nil")
	dlist.Remove(nil)
	// dlist2.Remove(nil) // nil panic
	checkItems()

	t.Log("check released elements")
	require.Equal(t, int64(dlist2.Len()), dlist.Len())
	expected := []int{2, 4}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	require.Nil(t, elements[0].prev)
	require.Nil(t, elements[0].next)
	require.Nil(t, elements[0].listRef)

	require.Nil(t, elements[2].prev)
	require.Nil(t, elements[2].next)
	require.Nil(t, elements[2].listRef)

	require.Nil(t, elements[4].prev)
	require.Nil(t, elements[4].next)
	require.Nil(t, elements[4].listRef)
}

func BenchmarkNewLinkedList_AppendValue(b *testing.B) {
	dlist := NewLinkedList[int]()
	defer func() { _ = dlist.Close() }()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dlist.AppendValue(i)
	}
	b.ReportAllocs()
}

func BenchmarkSDKLinkedList_PushBack(b *testing.B) {
	dlist := list.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dlist.PushBack(i)
	}
	b.ReportAllocs()
}

func TestLinkedList_PushBack(t *testing.T) {
	dlist := NewLinkedList[int]()
	element := dlist.PushBack(1)
	require.Equal(t, int64(1), dlist.Len())
	require.Equal(t, element.Value, 1)

	element = dlist.PushBack(2)
	require.Equal(t, int64(2), dlist.Len())
	require.Equal(t, element.Value, 2)

	expected := []int{1, 2}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	reverseExpected := []int{2, 1}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})
}

func TestLinkedList_PushFront(t *testing.T) {
	dlist := NewLinkedList[int]()
	element := dlist.PushFront(1)
	require.Equal(t, int64(1), dlist.Len())
	require.Equal(t, element.Value, 1)

	element = dlist.PushFront(2)
	require.Equal(t, int64(2), dlist.Len())
	require.Equal(t, element.Value, 2)

	expected := []int{2, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	reverseExpected := []int{1, 2}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})
}

func BenchmarkDoublyLinkedList_PushBack(b *testing.B) {
	dlist := NewLinkedList[int]()
	defer func() { _ = dlist.Close() }()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dlist.PushBack(i)
	}
	b.ReportAllocs()
}

func BenchmarkDoublyLinkedList_PushBackRemove(b *testing.B) {
	dlist := NewLinkedList[int]()
	defer func() { _ = dlist.Close() }()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dlist.Remove(dlist.PushBack(i))
	}
}

func BenchmarkSDKLinkedList_PushBackRemove(b *testing.B) {
	dlist := list.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dlist.Remove(dlist.PushBack(i))
	}
}

func TestDoublyLinkedList_InsertOutsideList(t *testing.T) {
	dlist := NewLinkedList[int]()
	defer func() { require.NoError(t, dlist.Close()) }()
	require.Nil(t, dlist.InsertBefore(2, dlist.Front()))
	require.Nil(t, dlist.InsertAfter(2, nil))
	require.Equal(t, int64(0), dlist.Len())

	other := NewLinkedList[int]()
	defer func() { require.NoError(t, other.Close()) }()
	foreign := other.PushBack(1)
	require.Nil(t, dlist.InsertAfter(2, foreign))
	_, removed := dlist.Remove(foreign)
	require.False(t, removed)
	require.False(t, dlist.MoveToFront(foreign))
	require.Equal(t, int64(1), other.Len())
}

func TestLinkedList_InsertAfterAndMove(t *testing.T) {
	dlist := NewLinkedList[int]()
	dlist2 := list.New()
	checkItems := func() {
		dlistItr := dlist.Front()
		dlist2Itr := dlist2.Front()
		require.NotNil(t, dlistItr)
		require.NotNil(t, dlist2Itr)
		require.Equal(t, int64(dlist2.Len()), dlist.Len())
		for dlist2Itr != nil {
			require.Equal(t, dlist2Itr.Value, dlistItr.Value)
			dlist2Itr = dlist2Itr.Next()
			dlistItr = dlistItr.Next()
		}
	}

	elements := dlist.AppendValue(1, 2, 3, 4, 5)
	_6n := dlist.InsertAfter(6, elements[len(elements)-1])
	_7n := dlist.InsertBefore(7, elements[0])
	require.Equal(t, int64(7), dlist.Len())
	expected := []int{7, 1, 2, 3, 4, 5, 6}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))
	reverseExpected := []int{6, 5, 4, 3, 2, 1, 7}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})

	dlist2.PushBack(1)
	dlist2.PushBack(2)
	dlist2.PushBack(3)
	dlist2.PushBack(4)
	dlist2.PushBack(5)
	_6n_2 := dlist2.InsertAfter(6, dlist2.Back())
	_7n_2 := dlist2.InsertBefore(7, dlist2.Front())
	require.Equal(t, int64(dlist2.Len()), dlist.Len())
	checkItems()

	t.Log("test move after")
	dlist.MoveToBack(_7n)
	dlist2.MoveToBack(_7n_2)
	checkItems()
	expected = []int{1, 2, 3, 4, 5, 6, 7}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))
	reverseExpected = []int{7, 6, 5, 4, 3, 2, 1}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})

	t.Log("test move to front")
	dlist.MoveToFront(_6n)
	dlist2.MoveToFront(_6n_2)
	checkItems()
	expected = []int{6, 1, 2, 3, 4, 5, 7}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))
	reverseExpected = []int{7, 5, 4, 3, 2, 1, 6}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})

	t.Log("test move before")
	dlist.MoveBefore(_6n, _7n)
	dlist2.MoveBefore(_6n_2, _7n_2)
	checkItems()
	expected = []int{1, 2, 3, 4, 5, 6, 7}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))
	reverseExpected = []int{7, 6, 5, 4, 3, 2, 1}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})

	t.Log("test move after")
	dlist.MoveAfter(_7n, dlist.Front())
	dlist2.MoveAfter(_7n_2, dlist2.Front())
	checkItems()
	expected = []int{1, 7, 2, 3, 4, 5, 6}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))
	reverseExpected = []int{6, 5, 4, 3, 2, 7, 1}
	dlist.ReverseForeach(func(idx int64, e *NodeElement[int]) {
		require.Equal(t, reverseExpected[idx], e.Value)
	})

}

func TestDoublyLinkedList_APIsCoverage(t *testing.T) {
	dlist := NewLinkedList[int]()
	dlist2 := list.New()
	checkItems := func() {
		dlistItr := dlist.Front()
		dlist2Itr := dlist2.Front()
		require.NotNil(t, dlistItr)
		require.NotNil(t, dlist2Itr)
		require.Equal(t, int64(dlist2.Len()), dlist.Len())
		for dlist2Itr != nil {
			require.Equal(t, dlist2Itr.Value, dlistItr.Value)
			dlist2Itr = dlist2Itr.Next()
			dlistItr = dlistItr.Next()
		}
	}

	e1 := dlist.PushFront(1)
	e2 := dlist.PushBack(2)
	dlist.MoveBefore(e2, e1)

	e1_1 := dlist2.PushFront(1)
	e2_1 := dlist2.PushBack(2)
	dlist2.MoveBefore(e2_1, e1_1)

	checkItems()

	e3 := dlist.InsertAfter(3, e1)
	e3_1 := dlist2.InsertAfter(3, e1_1)
	checkItems()

	expected := []int{2, 1, 3}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveBefore(e3, e1)
	dlist2.MoveBefore(e3_1, e1_1)
	checkItems()

	expected = []int{2, 3, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveBefore(e2, e3)
	dlist2.MoveBefore(e2_1, e3_1)
	checkItems()
	expected = []int{2, 3, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveBefore(e2, e1)
	dlist2.MoveBefore(e2_1, e1_1)
	checkItems()
	expected = []int{3, 2, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveBefore(e2, e3)
	dlist2.MoveBefore(e2_1, e3_1)
	checkItems()
	expected = []int{2, 3, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveAfter(e2, e3)
	dlist2.MoveAfter(e2_1, e3_1)
	checkItems()
	expected = []int{3, 2, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveAfter(e1, e2)
	dlist2.MoveAfter(e1_1, e2_1)
	checkItems()
	expected = []int{3, 2, 1}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	dlist.MoveAfter(e2, e1)
	dlist2.MoveAfter(e2_1, e1_1)
	checkItems()
	expected = []int{3, 1, 2}
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
		require.Equal(t, expected[idx], e.Value)
		return nil
	}))

	moved := dlist.MoveAfter(e2, e2)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveBefore(e1, e1)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveBefore(nil, e1)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveBefore(e1, nil)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveAfter(nil, e1)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveAfter(e1, nil)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveToBack(nil)
	require.False(t, moved)
	checkItems()

	moved = dlist.MoveToFront(nil)
	require.False(t, moved)
	checkItems()

	var nilE *NodeElement[int] = nil
	require.Nil(t, nilE.Prev())
	require.Nil(t, nilE.Next())
	require.False(t, nilE.HasNext())
	require.False(t, nilE.HasPrev())
}

type recycledItem struct {
	id   int
	name string
}

func newTestList(t *testing.T) (LinkedList[recycledItem], *alloc.Core[NodeElement[recycledItem]]) {
	t.Helper()
	core, err := alloc.NewCore[NodeElement[recycledItem]](alloc.WithCoreStats())
	require.NoError(t, err)
	a := core.NewAllocator()
	t.Cleanup(func() { _ = a.Close() })
	return NewLinkedListWithAllocator[recycledItem](a), core
}

func TestLinkedList_RemoveRecyclesElement(t *testing.T) {
	dlist, core := newTestList(t)
	first := dlist.PushBack(recycledItem{id: 1, name: "first"})
	second := dlist.PushBack(recycledItem{id: 2, name: "second"})

	v, ok := dlist.Remove(first)
	require.True(t, ok)
	require.Equal(t, recycledItem{id: 1, name: "first"}, v)
	require.Equal(t, int64(1), dlist.Len())
	require.Same(t, second, dlist.Front())

	_, ok = dlist.Remove(first)
	require.False(t, ok)

	third := dlist.PushFront(recycledItem{id: 3})
	require.Same(t, first, third)
	require.Equal(t, recycledItem{id: 3}, third.Value)
	require.Same(t, third, dlist.Front())
	require.Same(t, second, third.Next())
	require.Nil(t, third.Prev())

	stats := core.Stats()
	require.Equal(t, int64(2), stats.Fallback)
	require.Equal(t, int64(1), stats.Recycled)
	require.Equal(t, int64(1), stats.Retired)
}

func TestLinkedList_ForeachStopsOnError(t *testing.T) {
	dlist, _ := newTestList(t)
	for i := 0; i < 5; i++ {
		dlist.PushBack(recycledItem{id: i})
	}

	stop := errors.New("stop")
	visited := 0
	err := dlist.Foreach(func(idx int64, e *NodeElement[recycledItem]) error {
		visited++
		if e.Value.id == 2 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 3, visited)

	// Removing while iterating.
	require.NoError(t, dlist.Foreach(func(idx int64, e *NodeElement[recycledItem]) error {
		if e.Value.id%2 == 0 {
			dlist.Remove(e)
		}
		return nil
	}))
	ids := make([]int, 0, 2)
	dlist.ReverseForeach(func(idx int64, e *NodeElement[recycledItem]) {
		ids = append(ids, e.Value.id)
	})
	require.Equal(t, []int{3, 1}, ids)
}

func TestLinkedList_FindFirst(t *testing.T) {
	dlist, _ := newTestList(t)
	_, found := dlist.FindFirst(recycledItem{id: 1})
	require.False(t, found)

	dlist.AppendValue(recycledItem{id: 1, name: "a"}, recycledItem{id: 2, name: "b"}, recycledItem{id: 3, name: "b"})
	e, found := dlist.FindFirst(recycledItem{id: 2, name: "b"})
	require.True(t, found)
	require.Equal(t, 2, e.Value.id)

	e, found = dlist.FindFirst(recycledItem{}, func(e *NodeElement[recycledItem]) bool {
		return e.Value.name == "b"
	})
	require.True(t, found)
	require.Equal(t, 2, e.Value.id)

	_, found = dlist.FindFirst(recycledItem{id: 9})
	require.False(t, found)
}

func TestLinkedList_ClearAndClose(t *testing.T) {
	core, err := alloc.NewCore[NodeElement[recycledItem]](alloc.WithCoreStats())
	require.NoError(t, err)
	a := core.NewAllocator()
	dlist := NewLinkedListWithAllocator[recycledItem](a)

	for i := 0; i < 10; i++ {
		require.NotNil(t, dlist.PushBack(recycledItem{id: i}))
	}
	dlist.Clear()
	require.Equal(t, int64(0), dlist.Len())
	require.Nil(t, dlist.Front())
	require.Nil(t, dlist.Back())
	require.Equal(t, 10, core.Shared().Len())

	// Reuses the ten cleared elements.
	dlist.AppendValue(recycledItem{id: 1}, recycledItem{id: 2})
	require.Equal(t, int64(10), core.Stats().Fallback)
	require.Equal(t, int64(2), core.Stats().Recycled)

	require.NoError(t, dlist.Close())
	require.NoError(t, dlist.Close())
	require.Nil(t, dlist.PushBack(recycledItem{id: 3}))
	require.Nil(t, dlist.AppendValue(recycledItem{id: 4}))
	require.Equal(t, 10, core.Shared().Len())

	// The list does not own a.
	require.False(t, a.Local().IsClosed())
	require.NoError(t, a.Close())
}

func TestLinkedList_CloseReleasesOwnedAllocator(t *testing.T) {
	dlist := NewLinkedList[recycledItem]()
	dlist.AppendValue(recycledItem{id: 1}, recycledItem{id: 2})
	impl := dlist.(*doublyLinkedList[recycledItem])
	require.NoError(t, dlist.Close())
	require.True(t, impl.allocator.Local().IsClosed())
}

func TestLinkedList_InsertFailureCause(t *testing.T) {
	core, err := alloc.NewCore[NodeElement[recycledItem]]()
	require.NoError(t, err)
	a := core.NewAllocator()
	dlist := NewLinkedListWithAllocator[recycledItem](a)
	require.NoError(t, dlist.Err())
	require.NotNil(t, dlist.PushBack(recycledItem{id: 1}))

	// The caller closed the allocator under the list.
	require.NoError(t, a.Close())
	require.Nil(t, dlist.PushBack(recycledItem{id: 2}))
	require.ErrorIs(t, dlist.Err(), alloc.ErrLocalPoolClosed)
	require.Equal(t, int64(1), dlist.Len())

	require.NoError(t, dlist.Close())
	require.Nil(t, dlist.PushFront(recycledItem{id: 3}))
	require.ErrorIs(t, dlist.Err(), ErrListClosed)
	require.Nil(t, dlist.AppendValue(recycledItem{id: 4}))
	require.ErrorIs(t, dlist.Err(), ErrListClosed)
}

func TestLinkedList_ListsOnManyGoroutines(t *testing.T) {
	core, err := alloc.NewCore[NodeElement[int]](alloc.WithCoreStats())
	require.NoError(t, err)

	const (
		workers = 8
		items   = 500
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			a := core.NewAllocator()
			dlist := NewLinkedListWithAllocator[int](a)
			defer func() {
				_ = dlist.Close()
				_ = a.Close()
			}()
			for round := 0; round < 10; round++ {
				for i := 0; i < items; i++ {
					dlist.PushBack(w*items + i)
				}
				sum := 0
				_ = dlist.Foreach(func(idx int64, e *NodeElement[int]) error {
					sum += e.Value - w*items
					return nil
				})
				if sum != items*(items-1)/2 {
					t.Errorf("worker %d: corrupted list, sum %d", w, sum)
				}
				dlist.Clear()
			}
		}(w)
	}
	wg.Wait()

	stats := core.Stats()
	require.Equal(t, int64(workers*items*10), stats.Recycled+stats.Fallback)
	require.Equal(t, int(stats.Fallback), core.Shared().Len())
}
