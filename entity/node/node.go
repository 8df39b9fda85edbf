package node

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/randengine"
)

// Node 路口实体
// 功能：把进口路段缓冲区中的车辆放行到出口路段
// 说明：一条路段只属于一个上游路口和一个下游路口，不同路口之间没有共享的可变状态
type Node struct {
	id       int32
	x, y     float64
	inLinks  []entity.ILink
	outLinks []entity.ILink
	outs     map[int32]entity.ILink // 出口路段ID->路段
	rng      *randengine.Engine
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%d)", n.id)
}

func (n *Node) ID() int32 {
	return n.id
}

// XY 路口坐标
func (n *Node) XY() (float64, float64) {
	return n.x, n.y
}

func (n *Node) InLinks() []entity.ILink {
	return n.inLinks
}

func (n *Node) OutLinks() []entity.ILink {
	return n.outLinks
}

// moveNode 推进一步
// 算法说明：
// 1. 收集缓冲区非空的进口路段
// 2. 按通行能力加权随机选取一条进口路段，放行其所有与路口相邻车道的缓冲区车辆，直到某辆车无法放行
// 3. 被选中的路段移出候选集合，重复直到候选为空
func (n *Node) moveNode(ctx entity.ITickContext) {
	candidates := lo.Filter(n.inLinks, func(l entity.ILink, _ int) bool { return !l.BufferIsEmpty() })
	for len(candidates) > 0 {
		weights := lo.Map(candidates, func(l entity.ILink, _ int) float64 { return l.Capacity() })
		var i int
		if lo.SumBy(weights, func(w float64) float64 { return w }) > 0 {
			i = n.rng.DiscreteDistribution(weights)
		}
		n.clearLinkBuffer(ctx, candidates[i])
		candidates = append(candidates[:i], candidates[i+1:]...)
	}
}

func (n *Node) clearLinkBuffer(ctx entity.ITickContext, l entity.ILink) {
	for _, lane := range l.ToNodeLanes() {
		for veh := lane.FirstFromBuffer(); veh != nil; veh = lane.FirstFromBuffer() {
			if !n.moveVehicleOverNode(ctx, l, lane, veh) {
				break
			}
		}
	}
}

// moveVehicleOverNode 尝试把缓冲区队头车辆放行到下一路段
// 返回：车辆是否已离开缓冲区
// 算法说明：
// 1. 下一路段不在车道可到达集合中或不从本路口出发时panic（路径与车道图不一致）
// 2. 信号灯不放行时等待
// 3. 下一路段有空间时放行
// 4. 缓冲区超过卡死时长没有变化时，按配置移除车辆或强制放行
func (n *Node) moveVehicleOverNode(ctx entity.ITickContext, in entity.ILink, lane entity.ILane, veh entity.IVehicle) bool {
	now := ctx.Now()
	driver := veh.Driver()
	next, ok := driver.NextLinkID()
	if !ok {
		log.Panicf("%v: %v in buffer of %v has no next link", n, veh, lane)
	}
	if !lane.HasDestination(next) {
		log.Panicf("%v: %v cannot reach link %d from %v (destinations %v)", n, veh, next, lane, lane.DestinationLinkIDs())
	}
	out, ok := n.outs[next]
	if !ok {
		log.Panicf("%v: link %d of %v does not leave this node", n, next, veh)
	}
	if !lane.IsGreen(now, next) {
		return false
	}
	if out.HasSpace() {
		n.moveOver(ctx, in, lane, out, veh)
		return true
	}
	rc := ctx.RuntimeConfig()
	if now-lane.BufferLastMovedTime() > rc.C.StuckTime {
		if rc.C.RemoveStuckVehicles {
			lane.PopFirstFromBuffer(now)
			ctx.ProcessEvent(events.NewAgentStuck(now, driver.PersonID(), in.ID(), driver.Mode()))
			ctx.AgentCounter().DecLiving(1)
			ctx.AgentCounter().IncLost(1)
			veh.SetState(entity.VehicleStateRemoved)
		} else {
			n.moveOver(ctx, in, lane, out, veh)
		}
		return true
	}
	return false
}

func (n *Node) moveOver(ctx entity.ITickContext, in entity.ILink, lane entity.ILane, out entity.ILink, veh entity.IVehicle) {
	now := ctx.Now()
	lane.PopFirstFromBuffer(now)
	ctx.ProcessEvent(events.NewLinkLeave(now, veh.Driver().PersonID(), in.ID(), veh.ID()))
	veh.Driver().MoveOverNode()
	out.AddFromIntersection(ctx, veh)
}
