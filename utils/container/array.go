package container

import (
	"log"
	"sync"
)

// IIncrementalItem 支持增量更新的元素接口
// 说明：元素需记录自己在数组中的位置，以便O(1)删除
type IIncrementalItem interface {
	Index() int         // 获取元素的索引
	SetIndex(index int) // 设置元素的索引
}

// IncrementalItemBase 增量元素基类，可嵌入其他结构体
type IncrementalItemBase struct {
	index int
}

func (b *IncrementalItemBase) Index() int {
	return b.index
}

func (b *IncrementalItemBase) SetIndex(index int) {
	b.index = index
}

// IncrementalArray 增量数组
// 功能：Add/Remove先写入缓冲区，Prepare时统一生效
// 说明：Add/Remove可在并发的更新阶段调用；Data的顺序不稳定，调用方不应依赖元素顺序
type IncrementalArray[T interface {
	comparable
	IIncrementalItem
}] struct {
	data        []T
	add         []T
	remove      []T
	addMutex    sync.Mutex
	removeMutex sync.Mutex
}

// NewIncrementalArray 创建增量数组
func NewIncrementalArray[T interface {
	comparable
	IIncrementalItem
}]() *IncrementalArray[T] {
	return &IncrementalArray[T]{
		data:   make([]T, 0),
		add:    make([]T, 0),
		remove: make([]T, 0),
	}
}

// Len 获取已生效的元素个数
func (a *IncrementalArray[T]) Len() int {
	return len(a.data)
}

// Data 获取已生效的元素
func (a *IncrementalArray[T]) Data() []T {
	return a.data
}

// Pending 待生效的增删数量
func (a *IncrementalArray[T]) Pending() (adds, removes int) {
	a.addMutex.Lock()
	adds = len(a.add)
	a.addMutex.Unlock()
	a.removeMutex.Lock()
	removes = len(a.remove)
	a.removeMutex.Unlock()
	return
}

// Add 增加元素（Prepare后生效）
func (a *IncrementalArray[T]) Add(value T) {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.add = append(a.add, value)
}

// Remove 删除元素（Prepare后生效）
// 说明：元素必须已经生效，即Index有效
func (a *IncrementalArray[T]) Remove(value T) {
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()
	a.remove = append(a.remove, value)
}

func (a *IncrementalArray[T]) contains(x T) bool {
	ind := x.Index()
	return ind >= 0 && ind < len(a.data) && a.data[ind] == x
}

// Prepare 执行增量操作
// 算法说明：
// 1. 同一批次中既删又增的元素互相抵消，保持原位置
// 2. 删除：用末尾元素填充被删除元素的位置后截断
// 3. 不在数组中的新元素追加到末尾
// 4. 清空缓冲区
func (a *IncrementalArray[T]) Prepare() {
	a.addMutex.Lock()
	defer a.addMutex.Unlock()
	a.removeMutex.Lock()
	defer a.removeMutex.Unlock()

	pending := make(map[T]int, len(a.add)+len(a.remove))
	for _, x := range a.remove {
		pending[x]--
	}
	for _, x := range a.add {
		pending[x]++
	}
	for _, x := range a.remove {
		if pending[x] >= 0 {
			continue
		}
		pending[x] = 0
		if !a.contains(x) {
			log.Panicf("remove item not in array (index %d)", x.Index())
		}
		ind := x.Index()
		last := len(a.data) - 1
		a.data[ind] = a.data[last]
		a.data[ind].SetIndex(ind)
		var zero T
		a.data[last] = zero
		a.data = a.data[:last]
		x.SetIndex(-1)
	}
	for _, x := range a.add {
		if pending[x] <= 0 || a.contains(x) {
			continue
		}
		pending[x] = 0
		x.SetIndex(len(a.data))
		a.data = append(a.data, x)
	}

	a.add = a.add[:0]
	a.remove = a.remove[:0]
}
