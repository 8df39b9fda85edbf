package entity

import (
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
)

// ITickContext 单步调用上下文
// 功能：把当前时间与事件出口显式传入每一次推进调用
type ITickContext interface {
	Now() float64                         // 当前仿真时间（秒）
	ProcessEvent(e events.Event)          // 事件出口
	AgentCounter() *events.AgentCounter   // 智能体计数
	RuntimeConfig() *config.RuntimeConfig // 运行时配置
}

// ILinkActivator 路段激活接口（由引擎实现）
// 说明：只有被激活的路段会在每一步被推进
type ILinkActivator interface {
	ActivateLink(l ILink)
}
