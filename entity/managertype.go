package entity

import (
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// Manager依赖倒置

// entity/link/manager.go的依赖倒置
type ILinkManager interface {
	// 根据路网与车道定义初始化所有路段，拓扑错误直接panic
	Init(network *input.Network, lanes []*input.LanesToLink)

	// 输入Link ID，查找Link，如果不存在则panic
	Get(id int32) ILink
	// 输入Link ID，查找Link，如果不存在则返回error
	GetOrError(id int32) (ILink, error)

	Update(ctx ITickContext) // 推进所有活跃路段
	ClearVehicles(ctx ITickContext)
}

// entity/node/manager.go的依赖倒置
type INodeManager interface {
	Init(network *input.Network, linkManager ILinkManager)

	Get(id int32) INode
	GetOrError(id int32) (INode, error)

	Update(ctx ITickContext) // 推进所有路口
}

// entity/node/node.go的依赖倒置
type INode interface {
	ID() int32
	InLinks() []ILink
	OutLinks() []ILink
}

// entity/person/manager.go的依赖倒置
type IPersonManager interface {
	Init(persons []*input.Person, linkManager ILinkManager)

	Update(ctx ITickContext) // 处理到时出发的人员
}
