// Package entitytest 提供实体层测试用的单步上下文与驾驶者
package entitytest

import (
	"sync"

	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
)

// TickContext 可手动设置时间的单步上下文，同时记录所有事件与被激活的路段
type TickContext struct {
	T         float64
	Collector events.Collector
	Counter   events.AgentCounter
	Config    *config.RuntimeConfig

	mtx       sync.Mutex
	activated []entity.ILink
}

// NewTickContext 使用默认配置（步长1秒）创建上下文
func NewTickContext() *TickContext {
	return &TickContext{Config: config.NewRuntimeConfig(config.Config{})}
}

func (c *TickContext) Now() float64 {
	return c.T
}

func (c *TickContext) ProcessEvent(e events.Event) {
	c.Collector.HandleEvent(e)
}

func (c *TickContext) AgentCounter() *events.AgentCounter {
	return &c.Counter
}

func (c *TickContext) RuntimeConfig() *config.RuntimeConfig {
	return c.Config
}

func (c *TickContext) ActivateLink(l entity.ILink) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.activated = append(c.activated, l)
}

// Activated 被激活过的路段（按激活顺序，可重复）
func (c *TickContext) Activated() []entity.ILink {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return append([]entity.ILink(nil), c.activated...)
}

// Driver 沿固定路径行驶的驾驶者
type Driver struct {
	ID    int32
	Route []int32
	Pos   int // 当前所在路段在Route中的下标
	Modus string

	Ended   bool
	EndedAt float64
	EndedOn int32
}

// NewDriver 创建位于路径第一个路段的驾驶者
func NewDriver(id int32, route ...int32) *Driver {
	return &Driver{ID: id, Route: route, Modus: "car"}
}

func (d *Driver) PersonID() int32 {
	return d.ID
}

func (d *Driver) Mode() string {
	return d.Modus
}

func (d *Driver) NextLinkID() (int32, bool) {
	if d.Pos+1 < len(d.Route) {
		return d.Route[d.Pos+1], true
	}
	return 0, false
}

func (d *Driver) MoveOverNode() {
	d.Pos++
}

func (d *Driver) EndLeg(now float64, linkID int32) {
	d.Ended = true
	d.EndedAt = now
	d.EndedOn = linkID
}
