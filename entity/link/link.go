package link

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// Link 路段实体
// 功能：持有路段内的车道图，管理等待列表、停放车辆与活动中的智能体，向路口提供排队接口
// 说明：路段只被自己的推进调用或文档化的入口修改，路段之间不直接修改对方状态
type Link struct {
	container.IncrementalItemBase

	activator entity.ILinkActivator

	id         int32
	fromNodeID int32
	toNodeID   int32
	attrs      lane.LinkAttrs

	lanes       []*lane.Lane   // 按起点降序，下标0为根车道
	toNodeLanes []*lane.Lane   // 与下游路口相邻的车道
	toNodeILane []entity.ILane // toNodeLanes的接口形式

	waiting          container.List[entity.IVehicle] // 等待进入路网的车辆
	parked           map[int32]entity.IVehicle       // 停放车辆
	agentsInActivity map[int32]entity.IDriver        // 在本路段进行活动的智能体

	active bool
}

func newLink(base *input.Link, lanes []*lane.Lane, activator entity.ILinkActivator) *Link {
	l := &Link{
		activator:  activator,
		id:         base.ID,
		fromNodeID: base.From,
		toNodeID:   base.To,
		attrs: lane.LinkAttrs{
			ID:        base.ID,
			Length:    base.Length,
			FreeSpeed: base.FreeSpeed,
			Capacity:  base.Capacity,
			NumLanes:  base.NumLanes,
		},
		lanes:            lanes,
		parked:           make(map[int32]entity.IVehicle),
		agentsInActivity: make(map[int32]entity.IDriver),
	}
	l.toNodeLanes = lo.Filter(lanes, func(ln *lane.Lane, _ int) bool { return ln.IsToNodeLane() })
	l.toNodeILane = lo.Map(l.toNodeLanes, func(ln *lane.Lane, _ int) entity.ILane { return ln })
	return l
}

func (l *Link) String() string {
	return fmt.Sprintf("Link(%d: %d->%d)", l.id, l.fromNodeID, l.toNodeID)
}

func (l *Link) ID() int32 {
	return l.id
}

func (l *Link) FromNodeID() int32 {
	return l.fromNodeID
}

func (l *Link) ToNodeID() int32 {
	return l.toNodeID
}

func (l *Link) Length() float64 {
	return l.attrs.Length
}

func (l *Link) FreeSpeed() float64 {
	return l.attrs.FreeSpeed
}

func (l *Link) Capacity() float64 {
	return l.attrs.Capacity
}

// Lanes 所有车道（按起点降序）
func (l *Link) Lanes() []*lane.Lane {
	return l.lanes
}

// RootLane 从路段起点开始的车道
func (l *Link) RootLane() *lane.Lane {
	return l.lanes[0]
}

func (l *Link) ToNodeLanes() []entity.ILane {
	return l.toNodeILane
}

func (l *Link) IsActive() bool {
	return l.active
}

// activate 激活路段，已激活时不重复登记
func (l *Link) activate() {
	if l.active {
		return
	}
	l.active = true
	l.activator.ActivateLink(l)
}

// AddFromIntersection 上游路口把车辆放到本路段
// 说明：不检查存储能力，由路口通过HasSpace控制；车辆已在本路段上时panic
func (l *Link) AddFromIntersection(ctx entity.ITickContext, veh entity.IVehicle) {
	if veh.State().OnLink() && veh.CurrentLinkID() == l.id {
		log.Panicf("%v: %v is already on this link", l, veh)
	}
	now := ctx.Now()
	l.activate()
	l.RootLane().AddToQueue(now, veh)
	veh.SetCurrentLinkID(l.id)
	ctx.ProcessEvent(events.NewLinkEnter(now, veh.Driver().PersonID(), l.id, veh.ID()))
}

func (l *Link) AddParkedVehicle(veh entity.IVehicle) {
	veh.SetState(entity.VehicleStateParked)
	veh.SetCurrentLinkID(l.id)
	l.parked[veh.ID()] = veh
}

// RemoveParkedVehicle 移除停放车辆，不存在时返回nil
func (l *Link) RemoveParkedVehicle(id int32) entity.IVehicle {
	veh, ok := l.parked[id]
	if !ok {
		return nil
	}
	delete(l.parked, id)
	return veh
}

func (l *Link) GetParkedVehicle(id int32) entity.IVehicle {
	return l.parked[id]
}

// AddDepartingVehicle 出发车辆进入等待列表并激活路段
func (l *Link) AddDepartingVehicle(veh entity.IVehicle) {
	veh.SetState(entity.VehicleStateWaiting)
	veh.SetCurrentLinkID(l.id)
	l.waiting.PushBack(veh)
	l.activate()
}

func (l *Link) AddAgentInActivity(agent entity.IDriver) {
	l.agentsInActivity[agent.PersonID()] = agent
}

func (l *Link) RemoveAgentInActivity(personID int32) {
	delete(l.agentsInActivity, personID)
}

// AgentsInActivity 在本路段进行活动的智能体（按ID排序）
func (l *Link) AgentsInActivity() []entity.IDriver {
	agents := lo.Values(l.agentsInActivity)
	sort.Slice(agents, func(i, j int) bool { return agents[i].PersonID() < agents[j].PersonID() })
	return agents
}

// MoveLink 每步推进入口
// 返回：路段是否仍然活跃（有活跃车道或等待列表非空）
// 算法说明：
// 1. 按起点降序推进每条车道，车辆每步最多越过一个车道边界
// 2. 等待列表中的车辆进入根车道缓冲区
func (l *Link) MoveLink(ctx entity.ITickContext) bool {
	now := ctx.Now()
	onArrive := func(veh entity.IVehicle) {
		l.AddParkedVehicle(veh)
		veh.Driver().EndLeg(now, l.id)
	}
	for _, ln := range l.lanes {
		ln.MoveLane(ctx, l.lanes, onArrive)
	}
	l.moveWaitToBuffer(ctx)
	l.active = !l.waiting.Empty() || lo.SomeBy(l.lanes, func(ln *lane.Lane) bool { return ln.IsActive() })
	return l.active
}

// moveWaitToBuffer 根车道缓冲区与存储都有空间时依次放入等待列表中的车辆
// 说明：公交站点特性接管的车辆不再放入缓冲区；放不下的车辆留在等待列表，下一步重试
func (l *Link) moveWaitToBuffer(ctx entity.ITickContext) {
	now := ctx.Now()
	root := l.RootLane()
	for root.HasBufferSpace() && root.HasSpace() {
		veh, ok := l.waiting.PopFront()
		if !ok {
			return
		}
		d := veh.Driver()
		ctx.ProcessEvent(events.NewWait2Link(now, d.PersonID(), l.id, d.Mode()))
		if h := root.TransitStopHandler(); h != nil && h.HandleMoveWaitToBuffer(now, veh) {
			continue
		}
		root.AddToBuffer(now, veh)
	}
}

// BufferIsEmpty 所有与下游路口相邻的车道缓冲区是否都为空
func (l *Link) BufferIsEmpty() bool {
	for _, ln := range l.toNodeLanes {
		if !ln.BufferIsEmpty() {
			return false
		}
	}
	return true
}

// HasSpace 根车道是否还有存储空间
func (l *Link) HasSpace() bool {
	return l.RootLane().HasSpace()
}

// SpaceCap 所有车道存储能力之和
func (l *Link) SpaceCap() float64 {
	return lo.SumBy(l.lanes, func(ln *lane.Lane) float64 { return ln.StorageCapacity() })
}

// VehOnLinkCount 所有车道上的车辆数
func (l *Link) VehOnLinkCount() int {
	return lo.SumBy(l.lanes, func(ln *lane.Lane) int { return ln.VehOnLaneCount() })
}

// SimulatedFlowCapacity 根车道的每步通行能力
func (l *Link) SimulatedFlowCapacity() float64 {
	return l.RootLane().SimulatedFlowCapacity()
}

// AddSignalGroupDefinition 信号灯组挂载到所有与下游路口相邻的车道
func (l *Link) AddSignalGroupDefinition(def entity.ISignalGroup) {
	for _, ln := range l.toNodeLanes {
		ln.AddSignalGroupDefinition(def)
	}
}

// SetTransitStopHandler 在根车道上设置公交站点特性
func (l *Link) SetTransitStopHandler(h entity.ITransitStopHandler) {
	l.RootLane().SetTransitStopHandler(h)
}

func (l *Link) unbranched() *lane.Lane {
	if len(l.lanes) != 1 {
		log.Panicf("%v: buffer access through link is not supported with %d lanes", l, len(l.lanes))
	}
	return l.lanes[0]
}

// FirstFromBuffer 缓冲区队头车辆，只支持单车道路段
func (l *Link) FirstFromBuffer() entity.IVehicle {
	return l.unbranched().FirstFromBuffer()
}

// PopFirstFromBuffer 弹出缓冲区队头车辆，只支持单车道路段，缓冲区为空时panic
func (l *Link) PopFirstFromBuffer(now float64) entity.IVehicle {
	return l.unbranched().PopFirstFromBuffer(now)
}

// BufferLastMovedTime 缓冲区最近一次有车辆进出的时间，只支持单车道路段
func (l *Link) BufferLastMovedTime() float64 {
	return l.unbranched().BufferLastMovedTime()
}

// ClearVehicles 仿真结束时清空路段
// 算法说明：
// 1. 停放车辆直接清除
// 2. 等待列表中的每辆车产生卡死事件并计入丢失
// 3. 清空每条车道
// 说明：重复调用不会产生重复事件
func (l *Link) ClearVehicles(ctx entity.ITickContext) {
	now := ctx.Now()
	for _, veh := range l.parked {
		veh.SetState(entity.VehicleStateRemoved)
	}
	clear(l.parked)
	for _, veh := range l.waiting.Values() {
		d := veh.Driver()
		ctx.ProcessEvent(events.NewAgentStuck(now, d.PersonID(), l.id, d.Mode()))
		ctx.AgentCounter().DecLiving(1)
		ctx.AgentCounter().IncLost(1)
		veh.SetState(entity.VehicleStateRemoved)
	}
	l.waiting.Clear()
	for _, ln := range l.lanes {
		ln.ClearVehicles(ctx)
	}
	l.active = false
}

// GetVehicle 按停放、等待、车道的顺序查找车辆，不存在时返回nil
func (l *Link) GetVehicle(id int32) entity.IVehicle {
	if veh, ok := l.parked[id]; ok {
		return veh
	}
	if veh, ok := l.waiting.Find(func(v entity.IVehicle) bool { return v.ID() == id }); ok {
		return veh
	}
	for _, ln := range l.lanes {
		if veh := ln.GetVehicle(id); veh != nil {
			return veh
		}
	}
	return nil
}

// ParkedVehicles 停放车辆（按ID排序）
func (l *Link) ParkedVehicles() []entity.IVehicle {
	vehs := lo.Values(l.parked)
	sort.Slice(vehs, func(i, j int) bool { return vehs[i].ID() < vehs[j].ID() })
	return vehs
}

// WaitingVehicles 等待列表中的车辆（从队头开始）
func (l *Link) WaitingVehicles() []entity.IVehicle {
	return l.waiting.Values()
}

// AllVehicles 停放、等待与各车道上的所有车辆
func (l *Link) AllVehicles() []entity.IVehicle {
	vehs := append(l.ParkedVehicles(), l.waiting.Values()...)
	for _, ln := range l.lanes {
		vehs = append(vehs, ln.AllVehicles()...)
	}
	return vehs
}
