package events

import "sync/atomic"

// AgentCounter 智能体计数器
// 功能：统计仍在仿真中的（living）与卡死丢失的（lost）智能体数量
type AgentCounter struct {
	living atomic.Int64
	lost   atomic.Int64
}

func (c *AgentCounter) IncLiving() {
	c.living.Add(1)
}

func (c *AgentCounter) DecLiving(n int) {
	c.living.Add(-int64(n))
}

func (c *AgentCounter) IncLost(n int) {
	c.lost.Add(int64(n))
}

func (c *AgentCounter) Living() int64 {
	return c.living.Load()
}

func (c *AgentCounter) Lost() int64 {
	return c.lost.Load()
}
