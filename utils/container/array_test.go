package container_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
)

type testItem struct {
	container.IncrementalItemBase
	name string
}

func names(a *container.IncrementalArray[*testItem]) []string {
	return lo.Map(a.Data(), func(x *testItem, _ int) string { return x.name })
}

func checkIndex(t *testing.T, a *container.IncrementalArray[*testItem]) {
	for i, x := range a.Data() {
		assert.Equal(t, i, x.Index(), x.name)
	}
}

func TestIncrementalArray(t *testing.T) {
	a := container.NewIncrementalArray[*testItem]()
	items := lo.Map([]string{"a", "b", "c", "d", "e"}, func(s string, _ int) *testItem {
		return &testItem{name: s}
	})
	for _, x := range items {
		a.Add(x)
	}
	adds, removes := a.Pending()
	assert.Equal(t, 5, adds)
	assert.Equal(t, 0, removes)
	assert.Equal(t, 0, a.Len())
	a.Prepare()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names(a))
	checkIndex(t, a)

	// 删 > 增
	a.Remove(items[0])
	a.Remove(items[3])
	a.Remove(items[4])
	a.Prepare()
	assert.ElementsMatch(t, []string{"b", "c"}, names(a))
	checkIndex(t, a)

	// 增 >= 删
	f := &testItem{name: "f"}
	a.Remove(items[1])
	a.Add(f)
	a.Add(items[0])
	a.Prepare()
	assert.ElementsMatch(t, []string{"c", "f", "a"}, names(a))
	checkIndex(t, a)
}

func TestIncrementalArrayRemoveThenAdd(t *testing.T) {
	a := container.NewIncrementalArray[*testItem]()
	items := lo.Map([]string{"a", "b", "c"}, func(s string, _ int) *testItem {
		return &testItem{name: s}
	})
	for _, x := range items {
		a.Add(x)
	}
	a.Prepare()

	// 同一批次中先删后增的元素保留一份
	a.Remove(items[2])
	a.Remove(items[0])
	a.Add(items[0])
	a.Add(items[0])
	a.Prepare()
	assert.ElementsMatch(t, []string{"a", "b"}, names(a))
	checkIndex(t, a)
	assert.Equal(t, -1, items[2].Index())
}
