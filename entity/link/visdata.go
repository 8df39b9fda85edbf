package link

import (
	"math"

	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
)

// PositionKind 快照中智能体所处的位置类型
type PositionKind string

const (
	PositionQueue    PositionKind = "queue"
	PositionBuffer   PositionKind = "buffer"
	PositionWaiting  PositionKind = "waiting"
	PositionParked   PositionKind = "parked"
	PositionActivity PositionKind = "activity"
)

// Position 快照中一个智能体的位置
type Position struct {
	PersonID  int32
	VehicleID int32 // 活动中的智能体为-1
	LinkID    int32
	LaneID    int32
	Distance  float64 // 距路段起点的距离（米）
	Alignment int32   // 所在车道的横向位置
	Kind      PositionKind
}

// SnapshotInput 计算快照所需的路段公开状态
type SnapshotInput struct {
	LinkID    int32
	Length    float64
	FreeSpeed float64
	Lanes     []*lane.Lane
	Waiting   []entity.IVehicle
	Parked    []entity.IVehicle
	Agents    []entity.IDriver
}

// SnapshotInput 当前路段的公开状态
func (l *Link) SnapshotInput() SnapshotInput {
	return SnapshotInput{
		LinkID:    l.id,
		Length:    l.attrs.Length,
		FreeSpeed: l.attrs.FreeSpeed,
		Lanes:     l.lanes,
		Waiting:   l.WaitingVehicles(),
		Parked:    l.ParkedVehicles(),
		Agents:    l.AgentsInActivity(),
	}
}

// VehiclePositions 根据路段公开状态计算所有智能体的位置
// 算法说明：
// 1. 每条车道按存储能力均分车道长度作为车间距
// 2. 缓冲区车辆从车道终点向上游排列
// 3. 行驶队列车辆取自由流位置与前车之后一个车间距两者中靠上游的一个
// 4. 等待列表车辆位于路段起点，停放车辆与活动中的智能体位于路段终点
func VehiclePositions(now float64, in SnapshotInput) []Position {
	res := make([]Position, 0)
	for _, ln := range in.Lanes {
		laneStart := in.Length - ln.StartsAt()
		spacing := ln.Length() / math.Max(ln.StorageCapacity(), 1)
		queueEnd := ln.Length()
		for _, veh := range ln.BufferVehicles() {
			res = append(res, lanePosition(in.LinkID, ln, veh, laneStart+queueEnd, PositionBuffer))
			queueEnd = math.Max(queueEnd-spacing, 0)
		}
		for _, veh := range ln.QueueVehicles() {
			pos := ln.Length()
			if in.FreeSpeed > 0 {
				pos -= math.Max(veh.EarliestLinkExitTime()-now, 0) * in.FreeSpeed
			}
			pos = math.Max(math.Min(pos, queueEnd), 0)
			res = append(res, lanePosition(in.LinkID, ln, veh, laneStart+pos, PositionQueue))
			queueEnd = math.Max(pos-spacing, 0)
		}
	}
	var rootLaneID, rootAlignment int32
	if len(in.Lanes) > 0 {
		rootLaneID, rootAlignment = in.Lanes[0].ID(), in.Lanes[0].Alignment()
	}
	for _, veh := range in.Waiting {
		res = append(res, Position{
			PersonID: veh.Driver().PersonID(), VehicleID: veh.ID(), LinkID: in.LinkID,
			LaneID: rootLaneID, Alignment: rootAlignment, Kind: PositionWaiting,
		})
	}
	for _, veh := range in.Parked {
		res = append(res, Position{
			PersonID: veh.Driver().PersonID(), VehicleID: veh.ID(), LinkID: in.LinkID,
			LaneID: -1, Distance: in.Length, Kind: PositionParked,
		})
	}
	for _, agent := range in.Agents {
		res = append(res, Position{
			PersonID: agent.PersonID(), VehicleID: -1, LinkID: in.LinkID,
			LaneID: -1, Distance: in.Length, Kind: PositionActivity,
		})
	}
	return res
}

func lanePosition(linkID int32, ln *lane.Lane, veh entity.IVehicle, distance float64, kind PositionKind) Position {
	return Position{
		PersonID:  veh.Driver().PersonID(),
		VehicleID: veh.ID(),
		LinkID:    linkID,
		LaneID:    ln.ID(),
		Distance:  distance,
		Alignment: ln.Alignment(),
		Kind:      kind,
	}
}
