package events

import "fmt"

// EventType 事件类型
type EventType string

const (
	TypeLinkEnter      EventType = "entered link"
	TypeLinkLeave      EventType = "left link"
	TypeWait2Link      EventType = "wait2link"
	TypeAgentDeparture EventType = "departure"
	TypeAgentArrival   EventType = "arrival"
	TypeAgentStuck     EventType = "stuckAndAbort"
)

// Event 交通事件
// 功能：记录一次智能体与路段之间的状态变化，交给事件管理器分发
// 说明：Mode只在出发、到达、进入路网、卡死事件中填写
type Event struct {
	Type      EventType `bson:"type" json:"type"`
	Time      float64   `bson:"time" json:"time"`
	PersonID  int32     `bson:"person" json:"person"`
	LinkID    int32     `bson:"link" json:"link"`
	VehicleID int32     `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	Mode      string    `bson:"mode,omitempty" json:"mode,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{%s t=%.1f person=%d link=%d mode=%q}", e.Type, e.Time, e.PersonID, e.LinkID, e.Mode)
}

// NewLinkEnter 车辆驶入路段
func NewLinkEnter(now float64, personID, linkID, vehicleID int32) Event {
	return Event{Type: TypeLinkEnter, Time: now, PersonID: personID, LinkID: linkID, VehicleID: vehicleID}
}

// NewLinkLeave 车辆驶离路段（交给下游路口）
func NewLinkLeave(now float64, personID, linkID, vehicleID int32) Event {
	return Event{Type: TypeLinkLeave, Time: now, PersonID: personID, LinkID: linkID, VehicleID: vehicleID}
}

// NewWait2Link 等待列表中的车辆进入路段缓冲区
func NewWait2Link(now float64, personID, linkID int32, mode string) Event {
	return Event{Type: TypeWait2Link, Time: now, PersonID: personID, LinkID: linkID, Mode: mode}
}

// NewAgentDeparture 智能体出发
func NewAgentDeparture(now float64, personID, linkID int32, mode string) Event {
	return Event{Type: TypeAgentDeparture, Time: now, PersonID: personID, LinkID: linkID, Mode: mode}
}

// NewAgentArrival 智能体到达
func NewAgentArrival(now float64, personID, linkID int32, mode string) Event {
	return Event{Type: TypeAgentArrival, Time: now, PersonID: personID, LinkID: linkID, Mode: mode}
}

// NewAgentStuck 智能体卡死并放弃行程
func NewAgentStuck(now float64, personID, linkID int32, mode string) Event {
	return Event{Type: TypeAgentStuck, Time: now, PersonID: personID, LinkID: linkID, Mode: mode}
}
