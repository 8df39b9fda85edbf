package lane

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// LinkAttrs 车道计算能力所需的路段属性
type LinkAttrs struct {
	ID        int32
	Length    float64 // 长度（米）
	FreeSpeed float64 // 自由流速度（米/秒）
	Capacity  float64 // 通行能力（辆/CapacityPeriod）
	NumLanes  float64 // 路段车道数
}

// Params 与路段无关的能力计算参数
type Params struct {
	DT                    float64 // 仿真步长（秒）
	CapacityPeriod        float64 // 通行能力对应的时长（秒）
	FlowCapacityFactor    float64
	StorageCapacityFactor float64
	EffectiveCellSize     float64 // 单车占用长度（米）
}

// Lane 车道实体
// 功能：路段内的一段排队区间，包含行驶队列与缓冲区，是路段内车道图的节点
// 说明：车道之间的边以所属路段车道数组的下标表示，车道不持有其他车道或路段的指针
type Lane struct {
	id               int32
	linkID           int32
	startsAt         float64 // 起点到路段终点的距离
	endsAt           float64 // 终点到路段终点的距离
	length           float64
	representedLanes float64
	alignment        int32

	toLanes      []int              // 下游车道在路段车道数组中的下标
	toLinkIDs    []int32            // 末端车道声明的下游路段
	destinations []int32            // 可到达的所有下游路段（有序）
	destSet      map[int32]struct{} // destinations的集合形式

	freeSpeed             float64
	storageCapacity       float64 // 存储能力（辆）
	simulatedFlowCapacity float64 // 每步通行能力（辆）
	bufferStorageCapacity int     // 缓冲区容量（辆）
	flowCapFraction       float64 // 每步通行能力的小数部分
	bufferCap             float64 // 本步剩余通行能力
	flowAccumulate        float64 // 跨步累积的小数通行能力
	lastCapUpdate         float64

	queue       container.List[entity.IVehicle] // 行驶队列
	buffer      container.List[entity.IVehicle] // 缓冲区
	usedStorage float64                         // 队列与缓冲区车辆当量之和

	bufferLastMovedTime float64
	signalGroups        []entity.ISignalGroup
	transitStop         entity.ITransitStopHandler
	active              bool
}

// New 根据车道定义创建车道，长度与能力在路段构建车道图时确定
func New(linkID int32, def *input.Lane) *Lane {
	represented := def.RepresentedLanes
	if represented <= 0 {
		represented = 1
	}
	return &Lane{
		id:               def.ID,
		linkID:           linkID,
		startsAt:         def.StartsAt,
		length:           def.StartsAt,
		representedLanes: represented,
		alignment:        def.Alignment,
		toLinkIDs:        append([]int32(nil), def.ToLinks...),
		destSet:          make(map[int32]struct{}),
		lastCapUpdate:    math.Inf(-1),
	}
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane(%d@link %d)", l.id, l.linkID)
}

func (l *Lane) ID() int32 {
	return l.id
}

func (l *Lane) LinkID() int32 {
	return l.linkID
}

func (l *Lane) StartsAt() float64 {
	return l.startsAt
}

func (l *Lane) EndsAt() float64 {
	return l.endsAt
}

func (l *Lane) Length() float64 {
	return l.length
}

func (l *Lane) RepresentedLanes() float64 {
	return l.representedLanes
}

func (l *Lane) Alignment() int32 {
	return l.alignment
}

// SetEndsAt 设置车道终点，长度随之更新
func (l *Lane) SetEndsAt(end float64) {
	l.endsAt = end
	l.length = l.startsAt - end
}

// ToLanes 下游车道下标
func (l *Lane) ToLanes() []int {
	return l.toLanes
}

func (l *Lane) SetToLanes(indexes []int) {
	l.toLanes = indexes
}

// IsToNodeLane 是否为与下游路口相邻的末端车道
func (l *Lane) IsToNodeLane() bool {
	return len(l.toLanes) == 0
}

// ToLinkIDs 末端车道声明的下游路段
func (l *Lane) ToLinkIDs() []int32 {
	return l.toLinkIDs
}

// AddDestinationLink 记录一个可到达的下游路段，重复添加无效果
func (l *Lane) AddDestinationLink(id int32) {
	if _, ok := l.destSet[id]; ok {
		return
	}
	l.destSet[id] = struct{}{}
	i := sort.Search(len(l.destinations), func(i int) bool { return l.destinations[i] >= id })
	l.destinations = append(l.destinations, 0)
	copy(l.destinations[i+1:], l.destinations[i:])
	l.destinations[i] = id
}

func (l *Lane) HasDestination(linkID int32) bool {
	_, ok := l.destSet[linkID]
	return ok
}

func (l *Lane) DestinationLinkIDs() []int32 {
	return l.destinations
}

// CalculateCapacities 计算存储能力与通行能力
// 算法说明：
// 1. 每步通行能力 = 路段通行能力/时长 × 步长 × 流量系数 × 代表车道数/路段车道数
// 2. 缓冲区容量为每步通行能力向上取整，至少为1
// 3. 存储能力 = 长度 × 代表车道数 / 单车占用长度 × 存储系数
// 4. 存储能力不小于缓冲区容量，也不小于自由流行驶时间内按通行能力进入的车辆数
func (l *Lane) CalculateCapacities(link LinkAttrs, p Params) {
	l.freeSpeed = link.FreeSpeed
	numLanes := link.NumLanes
	if numLanes <= 0 {
		numLanes = 1
	}
	flowPerSecond := link.Capacity / p.CapacityPeriod * p.FlowCapacityFactor * l.representedLanes / numLanes
	l.simulatedFlowCapacity = flowPerSecond * p.DT
	l.flowCapFraction = l.simulatedFlowCapacity - math.Floor(l.simulatedFlowCapacity)
	l.bufferStorageCapacity = int(math.Ceil(l.simulatedFlowCapacity))
	if l.bufferStorageCapacity < 1 {
		l.bufferStorageCapacity = 1
	}
	l.storageCapacity = l.length * l.representedLanes / p.EffectiveCellSize * p.StorageCapacityFactor
	l.storageCapacity = math.Max(l.storageCapacity, float64(l.bufferStorageCapacity))
	if l.freeSpeed > 0 {
		l.storageCapacity = math.Max(l.storageCapacity, l.length/l.freeSpeed*flowPerSecond)
	}
}

func (l *Lane) StorageCapacity() float64 {
	return l.storageCapacity
}

func (l *Lane) SimulatedFlowCapacity() float64 {
	return l.simulatedFlowCapacity
}

func (l *Lane) BufferStorageCapacity() int {
	return l.bufferStorageCapacity
}

// updateBufferCapacity 每步开始时重置通行能力，小数部分累积到下一步
func (l *Lane) updateBufferCapacity(now float64) {
	if l.lastCapUpdate >= now {
		return
	}
	l.lastCapUpdate = now
	l.bufferCap = l.simulatedFlowCapacity
	if l.flowAccumulate < 1 {
		l.flowAccumulate += l.flowCapFraction
	}
}

// HasBufferSpace 缓冲区是否还能接收车辆（容量与本步通行能力都满足）
func (l *Lane) HasBufferSpace() bool {
	return l.buffer.Len() < l.bufferStorageCapacity && (l.bufferCap >= 1 || l.flowAccumulate >= 1)
}

// HasSpace 是否还有存储空间
func (l *Lane) HasSpace() bool {
	return l.usedStorage < l.storageCapacity
}

func (l *Lane) UsedStorage() float64 {
	return l.usedStorage
}

func (l *Lane) BufferIsEmpty() bool {
	return l.buffer.Empty()
}

func (l *Lane) QueueLen() int {
	return l.queue.Len()
}

func (l *Lane) BufferLen() int {
	return l.buffer.Len()
}

// VehOnLaneCount 队列与缓冲区中的车辆数
func (l *Lane) VehOnLaneCount() int {
	return l.queue.Len() + l.buffer.Len()
}

func (l *Lane) IsActive() bool {
	return l.active
}

func (l *Lane) BufferLastMovedTime() float64 {
	return l.bufferLastMovedTime
}

// AddSignalGroupDefinition 挂载信号灯组
func (l *Lane) AddSignalGroupDefinition(def entity.ISignalGroup) {
	l.signalGroups = append(l.signalGroups, def)
}

// IsGreen 驶向toLinkID的信号是否放行
// 说明：没有信号灯组控制该去向时视为放行，任一控制该去向的组为红灯则不放行
func (l *Lane) IsGreen(now float64, toLinkID int32) bool {
	for _, g := range l.signalGroups {
		if ids := g.ToLinkIDs(); len(ids) > 0 && !lo.Contains(ids, toLinkID) {
			continue
		}
		if !g.IsGreen(now) {
			return false
		}
	}
	return true
}

// SetTransitStopHandler 设置公交站点特性
func (l *Lane) SetTransitStopHandler(h entity.ITransitStopHandler) {
	l.transitStop = h
}

func (l *Lane) TransitStopHandler() entity.ITransitStopHandler {
	return l.transitStop
}
