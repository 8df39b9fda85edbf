package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
)

func TestListInit(t *testing.T) {
	l := &container.List[int]{}
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Empty())
	_, ok := l.PopFront()
	assert.False(t, ok)
}

func TestListOperation(t *testing.T) {
	l := &container.List[int]{ID: "test"}

	// ^, 1, 2, 3, ^
	n1 := l.PushBack(1)
	n2 := l.PushBack(2)
	n3 := l.PushBack(3)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{1, 2, 3}, l.Values())

	// test: first last next prev
	assert.Equal(t, n1, l.First())
	assert.Equal(t, n3, l.Last())
	assert.Equal(t, n2, n1.Next())
	assert.Equal(t, n2, n3.Prev())
	assert.Equal(t, l, n2.Parent())

	// test: remove middle
	l.Remove(n2)
	assert.Nil(t, n2.Parent())
	assert.Equal(t, []int{1, 3}, l.Values())
	assert.Equal(t, n3, n1.Next())

	// test: reuse removed node
	l.PushBackNode(n2)
	assert.Equal(t, []int{1, 3, 2}, l.Values())

	// test: pop
	v, ok := l.PopFront()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, n3, l.First())

	// test: find
	v, ok = l.Find(func(x int) bool { return x == 2 })
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = l.Find(func(x int) bool { return x == 7 })
	assert.False(t, ok)

	// test: clear
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.First())
	assert.Nil(t, l.Last())
	assert.Nil(t, n3.Parent())
}

func TestListPushNodeTwicePanics(t *testing.T) {
	l := &container.List[int]{}
	n := l.PushBack(1)
	assert.Panics(t, func() { l.PushBackNode(n) })
	other := &container.List[int]{}
	assert.Panics(t, func() { other.Remove(n) })
}
