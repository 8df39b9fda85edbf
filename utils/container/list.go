package container

import (
	"fmt"
	"log"
)

// ListNode 双向链表中的节点
// 功能：保存一个元素及其前后指针，节点可在链表间复用（移出后parent为nil）
type ListNode[T any] struct {
	parent     *List[T]     // 所属链表
	prev, next *ListNode[T] // 前驱和后继节点
	Value      T            // 元素
}

func (n *ListNode[T]) String() string {
	return fmt.Sprintf("Node{Value:%+v}", n.Value)
}

// Prev 获取节点的前一个节点（靠近队头）
func (n *ListNode[T]) Prev() *ListNode[T] {
	return n.prev
}

// Next 获取节点的下一个节点（靠近队尾）
func (n *ListNode[T]) Next() *ListNode[T] {
	return n.next
}

// Parent 获取节点所在的链表
func (n *ListNode[T]) Parent() *List[T] {
	return n.parent
}

// List 双向链表，按FIFO语义使用
// 功能：队尾插入、队头弹出，支持按节点O(1)删除与顺序遍历
// 说明：零值可直接使用
type List[T any] struct {
	ID         string       // 链表标识符
	head, tail *ListNode[T] // 头尾节点指针
	length     int          // 链表长度
}

func (l *List[T]) String() string {
	return fmt.Sprintf("List{ID:%v, Len:%d}", l.ID, l.length)
}

// Len 获取链表长度
func (l *List[T]) Len() int {
	return l.length
}

// Empty 链表是否为空
func (l *List[T]) Empty() bool {
	return l.length == 0
}

// First 获取队头节点，链表为空时返回nil
func (l *List[T]) First() *ListNode[T] {
	return l.head
}

// Last 获取队尾节点，链表为空时返回nil
func (l *List[T]) Last() *ListNode[T] {
	return l.tail
}

// Values 按队头到队尾的顺序返回所有元素
func (l *List[T]) Values() []T {
	values := make([]T, 0, l.length)
	for node := l.head; node != nil; node = node.next {
		values = append(values, node.Value)
	}
	return values
}

// PushBack 向队尾插入元素
// 功能：创建新节点并挂到链表尾部
// 返回：新节点，可用于后续O(1)删除
func (l *List[T]) PushBack(value T) *ListNode[T] {
	node := &ListNode[T]{Value: value}
	l.PushBackNode(node)
	return node
}

// PushBackNode 向队尾插入已有节点
// 说明：节点必须不在任何链表中，否则panic
func (l *List[T]) PushBackNode(add *ListNode[T]) {
	if add.parent != nil {
		log.Panic("push back node who already in list")
	}
	add.parent = l
	add.next = nil
	add.prev = l.tail
	if l.tail != nil {
		l.tail.next = add
	} else {
		l.head = add
	}
	l.tail = add
	l.length++
}

// PopFront 弹出队头元素
// 返回：队头元素与是否成功（链表为空时ok为false）
func (l *List[T]) PopFront() (value T, ok bool) {
	if l.head == nil {
		return value, false
	}
	node := l.head
	l.Remove(node)
	return node.Value, true
}

// Remove 从链表中移除节点
// 算法说明：
// 1. 检查节点是否属于当前链表
// 2. 维护前驱/后继指针与头尾指针
// 3. 清空被删除节点的指针并减少长度计数
func (l *List[T]) Remove(node *ListNode[T]) {
	if node.parent != l {
		log.Panic("remove node from wrong list")
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	node.parent = nil
	l.length--
}

// Find 从队头开始查找第一个满足条件的元素
func (l *List[T]) Find(pred func(T) bool) (value T, ok bool) {
	for node := l.head; node != nil; node = node.next {
		if pred(node.Value) {
			return node.Value, true
		}
	}
	return value, false
}

// Clear 清空链表
// 说明：逐个断开节点，保证被清除的节点可以再次插入其他链表
func (l *List[T]) Clear() {
	for node := l.head; node != nil; {
		next := node.next
		node.prev = nil
		node.next = nil
		node.parent = nil
		node = next
	}
	l.head = nil
	l.tail = nil
	l.length = 0
}
