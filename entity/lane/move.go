package lane

import (
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
)

// AddToQueue 车辆驶入车道行驶队列
// 说明：不检查存储能力，由调用方通过HasSpace控制
func (l *Lane) AddToQueue(now float64, veh entity.IVehicle) {
	exit := now
	if l.freeSpeed > 0 {
		exit += l.length / l.freeSpeed
	}
	veh.SetEarliestLinkExitTime(exit)
	veh.SetState(entity.VehicleStateQueued)
	l.queue.PushBack(veh)
	l.usedStorage += veh.Size()
	l.active = true
}

// AddToBuffer 车辆进入缓冲区，消耗本步通行能力
func (l *Lane) AddToBuffer(now float64, veh entity.IVehicle) {
	switch {
	case l.bufferCap >= 1:
		l.bufferCap--
	case l.flowAccumulate >= 1:
		l.flowAccumulate--
	default:
		log.Panicf("%v: add %v to buffer without flow capacity", l, veh)
	}
	if l.buffer.Empty() {
		l.bufferLastMovedTime = now
	}
	veh.SetState(entity.VehicleStateBuffered)
	l.buffer.PushBack(veh)
	l.usedStorage += veh.Size()
	l.active = true
}

// FirstFromBuffer 缓冲区队头车辆，缓冲区为空时返回nil
func (l *Lane) FirstFromBuffer() entity.IVehicle {
	if node := l.buffer.First(); node != nil {
		return node.Value
	}
	return nil
}

// PopFirstFromBuffer 弹出缓冲区队头车辆，缓冲区为空时panic
func (l *Lane) PopFirstFromBuffer(now float64) entity.IVehicle {
	veh, ok := l.buffer.PopFront()
	if !ok {
		log.Panicf("%v: pop from empty buffer", l)
	}
	l.usedStorage -= veh.Size()
	l.bufferLastMovedTime = now
	veh.SetState(entity.VehicleStateInNode)
	return veh
}

// MoveLane 推进一步
// 参数：ctx-单步上下文，lanes-所属路段的车道数组（下游车道下标的解释依据），onArrive-行程在本路段结束的车辆的去处
// 返回：车道是否仍然活跃（队列或缓冲区非空）
// 算法说明：
// 1. 重置本步通行能力
// 2. 行驶队列中已到最早驶离时间的车辆依次进入缓冲区：行程结束的车辆交给onArrive，不占用通行能力；缓冲区已满时停止
// 3. 非末端车道把缓冲区车辆按下一路段分配到能到达该路段的下游车道，下游车道已满时停止（先进先出阻塞）
func (l *Lane) MoveLane(ctx entity.ITickContext, lanes []*Lane, onArrive func(veh entity.IVehicle)) bool {
	now := ctx.Now()
	l.updateBufferCapacity(now)
	l.moveQueueToBuffer(now, onArrive)
	if !l.IsToNodeLane() {
		l.moveBufferToNextLane(now, lanes)
	}
	l.active = !l.queue.Empty() || !l.buffer.Empty()
	return l.active
}

func (l *Lane) moveQueueToBuffer(now float64, onArrive func(veh entity.IVehicle)) {
	for node := l.queue.First(); node != nil; node = l.queue.First() {
		veh := node.Value
		if veh.EarliestLinkExitTime() > now {
			break
		}
		if _, ok := veh.Driver().NextLinkID(); !ok {
			l.queue.PopFront()
			l.usedStorage -= veh.Size()
			onArrive(veh)
			continue
		}
		if !l.HasBufferSpace() {
			break
		}
		l.queue.PopFront()
		l.usedStorage -= veh.Size()
		l.AddToBuffer(now, veh)
	}
}

func (l *Lane) moveBufferToNextLane(now float64, lanes []*Lane) {
	for node := l.buffer.First(); node != nil; node = l.buffer.First() {
		veh := node.Value
		next, ok := veh.Driver().NextLinkID()
		if !ok {
			log.Panicf("%v: %v in buffer has no next link", l, veh)
		}
		to := l.chooseNextLane(lanes, next)
		if to == nil {
			log.Panicf("%v: no to-lane leads to link %d for %v", l, next, veh)
		}
		if !to.HasSpace() {
			break
		}
		l.PopFirstFromBuffer(now)
		to.AddToQueue(now, veh)
	}
}

// chooseNextLane 第一个能到达nextLinkID的下游车道
func (l *Lane) chooseNextLane(lanes []*Lane, nextLinkID int32) *Lane {
	for _, i := range l.toLanes {
		if lanes[i].HasDestination(nextLinkID) {
			return lanes[i]
		}
	}
	return nil
}

// ClearVehicles 清空车道，队列与缓冲区中的每辆车都记为卡死
// 说明：重复调用时车道已空，不会产生重复事件
func (l *Lane) ClearVehicles(ctx entity.ITickContext) {
	now := ctx.Now()
	for _, veh := range l.AllVehicles() {
		d := veh.Driver()
		ctx.ProcessEvent(events.NewAgentStuck(now, d.PersonID(), l.linkID, d.Mode()))
		ctx.AgentCounter().DecLiving(1)
		ctx.AgentCounter().IncLost(1)
		veh.SetState(entity.VehicleStateRemoved)
	}
	l.queue.Clear()
	l.buffer.Clear()
	l.usedStorage = 0
	l.active = false
}

// GetVehicle 在队列与缓冲区中查找车辆
func (l *Lane) GetVehicle(id int32) entity.IVehicle {
	match := func(v entity.IVehicle) bool { return v.ID() == id }
	if veh, ok := l.queue.Find(match); ok {
		return veh
	}
	if veh, ok := l.buffer.Find(match); ok {
		return veh
	}
	return nil
}

// AllVehicles 队列与缓冲区中的所有车辆（队列在前）
func (l *Lane) AllVehicles() []entity.IVehicle {
	return append(l.queue.Values(), l.buffer.Values()...)
}

// QueueVehicles 行驶队列中的车辆（从队头开始）
func (l *Lane) QueueVehicles() []entity.IVehicle {
	return l.queue.Values()
}

// BufferVehicles 缓冲区中的车辆（从队头开始）
func (l *Lane) BufferVehicles() []entity.IVehicle {
	return l.buffer.Values()
}
