package entity

import "fmt"

// VehicleState 车辆在路段内的位置状态
// 说明：任意时刻车辆只处于一种状态，对应停车表、等待列表、某条车道的行驶队列或缓冲区之一
type VehicleState int32

const (
	VehicleStateNew      VehicleState = iota // 刚创建，尚未放到路段上
	VehicleStateParked                       // 停放在路段上（智能体在活动中）
	VehicleStateWaiting                      // 在路段等待列表中，等待进入路网
	VehicleStateQueued                       // 在车道行驶队列中
	VehicleStateBuffered                     // 在车道缓冲区中，等待路口放行
	VehicleStateInNode                       // 已交给下游路口
	VehicleStateRemoved                      // 已从仿真中移除
)

var vehicleStateNames = map[VehicleState]string{
	VehicleStateNew:      "new",
	VehicleStateParked:   "parked",
	VehicleStateWaiting:  "waiting",
	VehicleStateQueued:   "queued",
	VehicleStateBuffered: "buffered",
	VehicleStateInNode:   "in-node",
	VehicleStateRemoved:  "removed",
}

func (s VehicleState) String() string {
	if name, ok := vehicleStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("VehicleState(%d)", int32(s))
}

// OnLink 车辆是否占据路段（等待、行驶或缓冲）
func (s VehicleState) OnLink() bool {
	return s == VehicleStateWaiting || s == VehicleStateQueued || s == VehicleStateBuffered
}

// entity/person/person.go的依赖倒置
// IDriver 驾驶车辆的智能体
type IDriver interface {
	PersonID() int32 // 人的ID
	Mode() string    // 当前出行方式
	// 当前路段之后要驶入的路段，ok=false表示行程在当前路段结束
	NextLinkID() (id int32, ok bool)
	MoveOverNode()                    // 通过路口，路径前进一个路段
	EndLeg(now float64, linkID int32) // 在linkID上结束本次出行
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	String() string

	ID() int32       // 车辆ID
	Size() float64   // 车辆折算当量（PCU）
	Driver() IDriver // 驾驶者
	CurrentLinkID() int32
	SetCurrentLinkID(id int32)
	EarliestLinkExitTime() float64 // 最早可以离开当前车道的时间
	SetEarliestLinkExitTime(t float64)
	State() VehicleState
	SetState(s VehicleState)
}

// ITransitStopHandler 车道上的公交站点特性
// 功能：车辆从等待列表进入缓冲区前，给站点一次接管车辆的机会
type ITransitStopHandler interface {
	// 返回true表示车辆已由站点接管，不再放入缓冲区
	HandleMoveWaitToBuffer(now float64, veh IVehicle) bool
}

// entity/signal/signal.go的依赖倒置
type ISignalGroup interface {
	ID() int32
	ToLinkIDs() []int32       // 控制的去向路段，为空表示控制所有去向
	IsGreen(now float64) bool // 当前是否放行
}

// entity/lane/lane.go的依赖倒置（路口可见的部分）
type ILane interface {
	String() string

	ID() int32
	LinkID() int32
	BufferIsEmpty() bool
	FirstFromBuffer() IVehicle                 // 查看缓冲区队头车辆，缓冲区为空时返回nil
	PopFirstFromBuffer(now float64) IVehicle   // 弹出缓冲区队头车辆，缓冲区为空时panic
	BufferLastMovedTime() float64              // 缓冲区最近一次有车辆进出的时间
	HasDestination(linkID int32) bool          // 能否通过本车道到达路段linkID
	DestinationLinkIDs() []int32               // 可到达的所有下游路段
	IsGreen(now float64, toLinkID int32) bool  // 驶向toLinkID的信号是否放行
	AddSignalGroupDefinition(def ISignalGroup) // 挂载信号灯组
}

// entity/link/link.go的依赖倒置（路口与人员可见的部分）
type ILink interface {
	String() string

	ID() int32
	FromNodeID() int32
	ToNodeID() int32
	Length() float64
	Capacity() float64 // 通行能力（辆/小时）

	AddFromIntersection(ctx ITickContext, veh IVehicle) // 上游路口把车辆放到本路段
	HasSpace() bool                                     // 首条车道是否还有存储空间
	BufferIsEmpty() bool                                // 所有驶向路口的车道缓冲区是否都为空
	ToNodeLanes() []ILane                               // 与下游路口相邻的车道
	SpaceCap() float64                                  // 所有车道存储能力之和
	AddSignalGroupDefinition(def ISignalGroup)          // 信号灯组挂载到所有与下游路口相邻的车道

	AddParkedVehicle(veh IVehicle)
	RemoveParkedVehicle(id int32) IVehicle
	GetParkedVehicle(id int32) IVehicle
	AddDepartingVehicle(veh IVehicle)
	AddAgentInActivity(agent IDriver)
	RemoveAgentInActivity(personID int32)
}
