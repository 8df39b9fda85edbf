package person

import (
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// GlobalRuntime 全局运行时统计
type GlobalRuntime struct {
	NumCompletedTrips int32   // 已完成的出行
	TravelTime        float64 // 总出行时间
	TravelDistance    float64 // 总出行距离（路径上除出发路段外的路段长度之和）
}

// PersonManager Person管理器
// 功能：创建人与车辆，按出发时间把车辆放入路网，处理到达与下一次出行
// 说明：到达由路段推进触发，可能来自并行推进的多个路段，出发队列与统计由互斥锁保护
type PersonManager struct {
	ctx         entity.ITickContext
	linkManager entity.ILinkManager

	data    map[int32]*Person
	persons []*Person

	mtx        sync.Mutex
	departures *container.PriorityQueue[*Person]
	runtime    GlobalRuntime
}

// NewManager 创建Person管理器
// 参数：ctx-事件出口与计数器所在的上下文
func NewManager(ctx entity.ITickContext) *PersonManager {
	return &PersonManager{
		ctx:        ctx,
		data:       make(map[int32]*Person),
		persons:    make([]*Person, 0),
		departures: container.NewPriorityQueue[*Person](),
	}
}

// Init 创建所有人，车辆停放在第一次出行的出发路段
// 说明：没有出行的人被忽略；出行路径为空或出发路段不存在时panic
func (m *PersonManager) Init(persons []*input.Person, linkManager entity.ILinkManager) {
	m.linkManager = linkManager
	for _, base := range persons {
		if len(base.Trips) == 0 {
			log.Warnf("person %d has no trip, ignored", base.ID)
			continue
		}
		for i, trip := range base.Trips {
			if len(trip.Route) == 0 {
				log.Panicf("person %d trip %d has empty route", base.ID, i)
			}
		}
		p := &Person{
			id:      base.ID,
			manager: m,
			plan:    plan{trips: base.Trips},
		}
		p.vehicle = vehicle.New(base.ID, base.VehicleSize, p)
		first := p.plan.trip()
		p.leg = routeFollower{route: first.Route}
		l := linkManager.Get(first.Route[0])
		l.AddParkedVehicle(p.vehicle)
		l.AddAgentInActivity(p)
		m.ctx.AgentCounter().IncLiving()
		m.departures.HeapPush(p, first.Departure)
		m.persons = append(m.persons, p)
	}
	m.data = lo.SliceToMap(m.persons, func(p *Person) (int32, *Person) {
		return p.id, p
	})
	log.Infof("persons: %d", len(m.persons))
}

// Get 根据ID获取Person，如果不存在则panic
func (m *PersonManager) Get(id int32) *Person {
	if p, ok := m.data[id]; !ok {
		log.Panicf("no id %d in person data", id)
		return nil
	} else {
		return p
	}
}

// GetOrError 根据ID获取Person，如果不存在则返回错误
func (m *PersonManager) GetOrError(id int32) (*Person, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in person data", id)
	} else {
		return p, nil
	}
}

func (m *PersonManager) Persons() []*Person {
	return m.persons
}

// Runtime 全局统计的副本
func (m *PersonManager) Runtime() GlobalRuntime {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.runtime
}

// PendingDepartures 尚未出发的出行数
func (m *PersonManager) PendingDepartures() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.departures.Len()
}

// Update 处理出发时间不晚于当前时间的所有出行
func (m *PersonManager) Update(ctx entity.ITickContext) {
	m.mtx.Lock()
	ready := m.departures.PopUntil(ctx.Now())
	m.mtx.Unlock()
	for _, p := range ready {
		m.depart(ctx, p)
	}
}

// depart 出发
// 算法说明：
// 1. 从出发路段取回停放车辆，结束活动
// 2. 路径只有一个路段时立即到达
// 3. 否则车辆进入出发路段的等待列表
func (m *PersonManager) depart(ctx entity.ITickContext, p *Person) {
	now := ctx.Now()
	trip := p.plan.trip()
	p.leg = routeFollower{route: trip.Route}
	l := m.linkManager.Get(trip.Route[0])
	veh := l.RemoveParkedVehicle(p.vehicle.ID())
	if veh == nil {
		log.Panicf("%v: vehicle %d is not parked on departure link %d", p, p.vehicle.ID(), l.ID())
	}
	l.RemoveAgentInActivity(p.id)
	p.inLeg = true
	p.legT0 = now
	ctx.ProcessEvent(events.NewAgentDeparture(now, p.id, l.ID(), p.Mode()))
	if len(trip.Route) == 1 {
		l.AddParkedVehicle(veh)
		p.EndLeg(now, l.ID())
		return
	}
	l.AddDepartingVehicle(veh)
}

// arrive 到达
// 算法说明：
// 1. 产生到达事件，智能体在到达路段开始活动，更新统计
// 2. 有下一次出行时，其出发路段必须是到达路段，按计划出发时间（不早于当前时间）排队
// 3. 否则智能体离开仿真
func (m *PersonManager) arrive(p *Person, now float64, linkID int32) {
	trip := p.plan.trip()
	m.ctx.ProcessEvent(events.NewAgentArrival(now, p.id, linkID, p.Mode()))
	l := m.linkManager.Get(linkID)
	l.AddAgentInActivity(p)
	p.inLeg = false

	distance := 0.
	for _, id := range trip.Route[1:] {
		distance += m.linkManager.Get(id).Length()
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.runtime.NumCompletedTrips++
	m.runtime.TravelTime += now - p.legT0
	m.runtime.TravelDistance += distance

	if !p.plan.advance() {
		p.done = true
		m.ctx.AgentCounter().DecLiving(1)
		return
	}
	next := p.plan.trip()
	if next.Route[0] != linkID {
		log.Panicf("%v: next trip starts at link %d but arrived at link %d", p, next.Route[0], linkID)
	}
	m.departures.HeapPush(p, math.Max(next.Departure, now))
}
