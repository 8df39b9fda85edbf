package events

import (
	"sync"

	"github.com/samber/lo"
)

// IHandler 事件处理器
type IHandler interface {
	HandleEvent(e Event)
}

// IFlusher 需要在仿真结束时落盘的处理器
type IFlusher interface {
	Flush() error
}

// HandlerFunc 函数形式的事件处理器
type HandlerFunc func(e Event)

func (f HandlerFunc) HandleEvent(e Event) {
	f(e)
}

// Manager 事件管理器
// 功能：接收各路段、路口、人员产生的事件并按注册顺序分发给处理器
// 说明：路段可能并行推进，ProcessEvent加锁串行化
type Manager struct {
	mtx      sync.Mutex
	handlers []IHandler
	counts   map[EventType]int
}

// NewManager 创建事件管理器
func NewManager() *Manager {
	return &Manager{
		handlers: make([]IHandler, 0),
		counts:   make(map[EventType]int),
	}
}

// AddHandler 注册处理器
func (m *Manager) AddHandler(h IHandler) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.handlers = append(m.handlers, h)
}

// ProcessEvent 分发事件
func (m *Manager) ProcessEvent(e Event) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.counts[e.Type]++
	for _, h := range m.handlers {
		h.HandleEvent(e)
	}
}

// Count 某类事件的累计数量
func (m *Manager) Count(t EventType) int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.counts[t]
}

// Finish 仿真结束，依次Flush所有实现了IFlusher的处理器
// 返回：第一个错误，其余错误记录日志
func (m *Manager) Finish() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var first error
	for _, f := range lo.FilterMap(m.handlers, func(h IHandler, _ int) (IFlusher, bool) {
		f, ok := h.(IFlusher)
		return f, ok
	}) {
		if err := f.Flush(); err != nil {
			log.Errorf("flush events err: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	log.Infof("events: %v", m.counts)
	return first
}

// Collector 在内存中保存所有事件
type Collector struct {
	mtx    sync.Mutex
	events []Event
}

func (c *Collector) HandleEvent(e Event) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.events = append(c.events, e)
}

// Events 已收集的事件副本
func (c *Collector) Events() []Event {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]Event(nil), c.events...)
}

// OfType 指定类型的事件
func (c *Collector) OfType(t EventType) []Event {
	return lo.Filter(c.Events(), func(e Event, _ int) bool { return e.Type == t })
}

// Reset 清空
func (c *Collector) Reset() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.events = nil
}
