package link_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/entitytest"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/link"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/node"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

var params = lane.Params{
	DT:                    1,
	FlowCapacityFactor:    1,
	StorageCapacityFactor: 1,
	EffectiveCellSize:     7.5,
}

// 1: 37.5米单车道（存储5辆，每秒1辆）；2: 下游路段；3: 200米两段车道
func testNetwork() *input.Network {
	return &input.Network{
		Nodes: []*input.Node{{ID: 1}, {ID: 2}, {ID: 3}},
		Links: []*input.Link{
			{ID: 1, From: 1, To: 2, Length: 37.5, FreeSpeed: 15, Capacity: 3600, NumLanes: 1},
			{ID: 2, From: 2, To: 3, Length: 100, FreeSpeed: 10, Capacity: 3600, NumLanes: 1},
			{ID: 3, From: 1, To: 2, Length: 200, FreeSpeed: 10, Capacity: 3600, NumLanes: 1},
		},
	}
}

func newManager(t *testing.T) *link.LinkManager {
	m := link.NewManager(params)
	err := m.Build(testNetwork(), []*input.LanesToLink{{
		LinkID: 3,
		Lanes: []*input.Lane{
			{ID: 31, StartsAt: 200, ToLanes: []int32{32}},
			{ID: 32, StartsAt: 100, ToLinks: []int32{2}},
		},
	}})
	require.NoError(t, err)
	return m
}

func newVehicle(id int32, route ...int32) *vehicle.Vehicle {
	return vehicle.New(id, 1, entitytest.NewDriver(id, route...))
}

func TestManagerLookup(t *testing.T) {
	m := newManager(t)
	assert.Len(t, m.Links(), 3)
	assert.Equal(t, int32(1), m.Get(1).ID())
	_, err := m.GetOrError(9)
	assert.Error(t, err)
	assert.Panics(t, func() { m.Get(9) })

	l1 := m.Link(1)
	assert.Equal(t, []int32{2}, l1.RootLane().DestinationLinkIDs())
	assert.Equal(t, 5., l1.SpaceCap())
	assert.Equal(t, 1., l1.SimulatedFlowCapacity())

	l3 := m.Link(3)
	require.Len(t, l3.Lanes(), 2)
	require.Len(t, l3.ToNodeLanes(), 1)
	assert.Equal(t, int32(32), l3.ToNodeLanes()[0].ID())
	assert.Equal(t, []int32{2}, l3.RootLane().DestinationLinkIDs())

	// 没有出路段的默认车道
	assert.Empty(t, m.Link(2).RootLane().DestinationLinkIDs())
}

func TestManagerBuildErrors(t *testing.T) {
	m := link.NewManager(params)
	network := &input.Network{Links: []*input.Link{{ID: 1, From: 1, To: 2, Length: 100, FreeSpeed: 10, Capacity: 3600}}}
	err := m.Build(network, []*input.LanesToLink{{LinkID: 1, Lanes: []*input.Lane{{ID: 1, StartsAt: 90, ToLinks: []int32{2}}}}})
	assert.ErrorIs(t, err, link.ErrRootLaneNotAtLinkStart)
	err = m.Build(network, []*input.LanesToLink{{LinkID: 7, Lanes: []*input.Lane{{ID: 1, StartsAt: 10, ToLinks: []int32{2}}}}})
	assert.Error(t, err)
	assert.Panics(t, func() {
		m.Init(network, []*input.LanesToLink{{LinkID: 1, Lanes: []*input.Lane{{ID: 1, StartsAt: 100}}}})
	})

	// 默认车道的路段同样检查自由流速度
	network.Links = append(network.Links, &input.Link{ID: 2, From: 2, To: 3, Length: 100, FreeSpeed: 0, Capacity: 3600})
	err = m.Build(network, nil)
	assert.ErrorIs(t, err, link.ErrInvalidLinkAttrs)
	assert.ErrorContains(t, err, "link 2")
}

// 路口只检查HasSpace，直接注入时可以超出存储能力；之后由下游路口逐步放行
func TestInjectBeyondStorageDrainedByNode(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	nm := node.NewManager(0)
	nm.Init(testNetwork(), m)
	step := func(now float64) {
		ctx.T = now
		nm.Update(ctx)
		m.Update(ctx)
	}
	l := m.Link(1)
	for i := int32(0); i < 6; i++ {
		l.AddFromIntersection(ctx, newVehicle(i, 1, 2))
	}
	assert.Len(t, ctx.Collector.OfType(events.TypeLinkEnter), 6)
	assert.False(t, l.HasSpace())

	// 自由流行驶时间2.5秒，T=3时队头进入缓冲区
	assert.NotPanics(t, func() { step(3) })
	assert.True(t, l.IsActive())
	assert.Equal(t, 6, l.VehOnLinkCount())
	assert.False(t, l.BufferIsEmpty())

	// 下一步路口把队头放到路段2，路段1恰好剩5辆
	step(4)
	assert.Equal(t, 5, l.VehOnLinkCount())
	assert.Equal(t, 1, m.Link(2).VehOnLinkCount())
	assert.Equal(t, entity.VehicleStateQueued, m.Link(2).GetVehicle(0).State())
	assert.Equal(t, 4., l.BufferLastMovedTime())
	assert.False(t, l.HasSpace())
}

// 根车道队列已满时，出发车辆留在等待列表，不能超出存储能力
func TestDepartureAgainstFullQueue(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	next := int32(0)
	for l.HasSpace() {
		l.AddFromIntersection(ctx, newVehicle(next, 1, 2))
		next++
	}
	require.Equal(t, 5, l.VehOnLinkCount())
	departing := newVehicle(100, 1, 2)
	l.AddDepartingVehicle(departing)

	m.Update(ctx)
	assert.Equal(t, 5, l.VehOnLinkCount())
	assert.Equal(t, []entity.IVehicle{departing}, l.WaitingVehicles())
	assert.Empty(t, ctx.Collector.OfType(events.TypeWait2Link))
	assert.True(t, l.IsActive())

	popped := 0
	for step := 1; step <= 30; step++ {
		ctx.T = float64(step)
		m.Update(ctx)
		assert.LessOrEqual(t, l.RootLane().UsedStorage(), l.RootLane().StorageCapacity(), "step %d", step)
		if !l.BufferIsEmpty() {
			l.PopFirstFromBuffer(ctx.Now())
			popped++
		}
	}
	assert.Equal(t, 6, popped)
	assert.Empty(t, l.WaitingVehicles())
	assert.Len(t, ctx.Collector.OfType(events.TypeWait2Link), 1)
}

func TestWaitingBlockedByFullBuffer(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	l.AddDepartingVehicle(newVehicle(1, 1, 2))
	m.Update(ctx)
	require.Equal(t, 1, l.RootLane().BufferLen())
	assert.Len(t, ctx.Collector.OfType(events.TypeWait2Link), 1)

	waiting := newVehicle(2, 1, 2)
	l.AddDepartingVehicle(waiting)
	ctx.T = 1
	m.Update(ctx)
	assert.Equal(t, []entity.IVehicle{waiting}, l.WaitingVehicles())
	assert.Equal(t, entity.VehicleStateWaiting, waiting.State())
	assert.Len(t, ctx.Collector.OfType(events.TypeWait2Link), 1)
	assert.True(t, l.IsActive())

	l.PopFirstFromBuffer(ctx.Now())
	ctx.T = 2
	m.Update(ctx)
	assert.Empty(t, l.WaitingVehicles())
	assert.Equal(t, entity.VehicleStateBuffered, waiting.State())
}

func TestAddFromIntersectionTwicePanics(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	veh := newVehicle(1, 1, 2)
	m.Link(1).AddFromIntersection(ctx, veh)
	assert.Panics(t, func() { m.Link(1).AddFromIntersection(ctx, veh) })
}

func TestBranchedLinkBufferAccessPanics(t *testing.T) {
	m := newManager(t)
	assert.Panics(t, func() { m.Link(3).PopFirstFromBuffer(0) })
	assert.Panics(t, func() { m.Link(3).FirstFromBuffer() })
	assert.Panics(t, func() { m.Link(1).PopFirstFromBuffer(0) })
	assert.Nil(t, m.Link(1).FirstFromBuffer())
}

func TestTraverseLanes(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(3)
	veh := newVehicle(1, 3, 2)
	l.AddFromIntersection(ctx, veh)
	assert.True(t, l.BufferIsEmpty())
	for step := 0; step <= 30; step++ {
		ctx.T = float64(step)
		m.Update(ctx)
		if !l.BufferIsEmpty() {
			break
		}
	}
	// 第10秒驶过第一段并进入第二段，再过10秒进入第二段缓冲区
	assert.Equal(t, 20., ctx.T)
	assert.Equal(t, entity.VehicleStateBuffered, veh.State())
	assert.Equal(t, veh, l.ToNodeLanes()[0].FirstFromBuffer())
}

func TestArrival(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	veh := newVehicle(1, 1)
	l.AddFromIntersection(ctx, veh)
	ctx.T = 3
	m.Update(ctx)
	d := veh.Driver().(*entitytest.Driver)
	assert.True(t, d.Ended)
	assert.Equal(t, int32(1), d.EndedOn)
	assert.Equal(t, veh, l.GetParkedVehicle(1))
	assert.Equal(t, entity.VehicleStateParked, veh.State())
	assert.Zero(t, l.VehOnLinkCount())
	assert.False(t, l.IsActive())

	// 下一次Update时移出活跃列表
	ctx.T = 4
	m.Update(ctx)
	assert.Empty(t, m.ActiveLinks())

	assert.Equal(t, veh, l.RemoveParkedVehicle(1))
	assert.Nil(t, l.RemoveParkedVehicle(1))
}

func TestNoDoubleAdmission(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	parked := newVehicle(1, 1, 2)
	l.AddParkedVehicle(parked)
	for i := int32(2); i < 6; i++ {
		l.AddDepartingVehicle(newVehicle(i, 1, 2))
	}
	for i := int32(6); i < 9; i++ {
		l.AddFromIntersection(ctx, newVehicle(i, 1, 2))
	}
	for step := 0; step < 6; step++ {
		ctx.T = float64(step)
		m.Update(ctx)
		all := l.AllVehicles()
		ids := lo.Map(all, func(v entity.IVehicle, _ int) int32 { return v.ID() })
		assert.Len(t, lo.Uniq(ids), len(ids))
		for _, v := range all {
			assert.True(t, v.State() == entity.VehicleStateParked || v.State().OnLink(), v.String())
		}
		assert.LessOrEqual(t, l.RootLane().UsedStorage(), 8.)
	}
	assert.Equal(t, parked, l.GetVehicle(1))
	assert.NotNil(t, l.GetVehicle(7))
	assert.Nil(t, l.GetVehicle(99))
}

func TestCapacityConservation(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	next := int32(0)
	for step := 0; step < 50; step++ {
		ctx.T = float64(step)
		// 上游按空间放行，下游每两步取走一辆
		for l.HasSpace() {
			l.AddFromIntersection(ctx, newVehicle(next, 1, 2))
			next++
		}
		m.Update(ctx)
		if step%2 == 0 && !l.BufferIsEmpty() {
			l.PopFirstFromBuffer(ctx.Now())
		}
		assert.LessOrEqual(t, float64(l.VehOnLinkCount()), l.RootLane().StorageCapacity())
	}
}

type stop struct {
	taken []entity.IVehicle
}

func (s *stop) HandleMoveWaitToBuffer(now float64, veh entity.IVehicle) bool {
	if veh.ID()%2 == 0 {
		s.taken = append(s.taken, veh)
		return true
	}
	return false
}

func TestTransitStopHandler(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	s := &stop{}
	l.SetTransitStopHandler(s)
	l.AddDepartingVehicle(newVehicle(2, 1, 2))
	l.AddDepartingVehicle(newVehicle(3, 1, 2))
	m.Update(ctx)
	require.Len(t, s.taken, 1)
	assert.Equal(t, int32(2), s.taken[0].ID())
	assert.Equal(t, int32(3), l.FirstFromBuffer().ID())
	assert.Len(t, ctx.Collector.OfType(events.TypeWait2Link), 2)
}

func TestClearVehiclesTwice(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	l.AddParkedVehicle(newVehicle(1, 1, 2))
	l.AddDepartingVehicle(newVehicle(2, 1, 2))
	l.AddDepartingVehicle(newVehicle(3, 1, 2))
	l.AddFromIntersection(ctx, newVehicle(4, 1, 2))
	m.Update(ctx)

	m.ClearVehicles(ctx)
	m.ClearVehicles(ctx)
	stuck := ctx.Collector.OfType(events.TypeAgentStuck)
	assert.ElementsMatch(t, []int32{2, 3, 4}, lo.Map(stuck, func(e events.Event, _ int) int32 { return e.PersonID }))
	assert.Equal(t, int64(3), ctx.Counter.Lost())
	assert.Empty(t, l.AllVehicles())
	assert.Empty(t, m.ActiveLinks())
}

func TestSignalAttachesToNodeLanes(t *testing.T) {
	m := newManager(t)
	g := &redGroup{}
	m.Link(3).AddSignalGroupDefinition(g)
	assert.False(t, m.Link(3).ToNodeLanes()[0].IsGreen(0, 2))
	assert.True(t, m.Link(3).RootLane().IsGreen(0, 2))
}

type redGroup struct{}

func (redGroup) ID() int32            { return 1 }
func (redGroup) ToLinkIDs() []int32   { return nil }
func (redGroup) IsGreen(float64) bool { return false }

func TestVehiclePositions(t *testing.T) {
	ctx := entitytest.NewTickContext()
	m := newManager(t)
	l := m.Link(1)
	l.AddFromIntersection(ctx, newVehicle(1, 1, 2))
	l.AddFromIntersection(ctx, newVehicle(2, 1, 2))
	ctx.T = 3
	m.Update(ctx)
	l.AddDepartingVehicle(newVehicle(3, 1, 2))
	l.AddParkedVehicle(newVehicle(4, 1, 2))
	l.AddAgentInActivity(entitytest.NewDriver(5, 1))

	pos := link.VehiclePositions(ctx.Now(), l.SnapshotInput())
	require.Len(t, pos, 5)
	byKind := lo.KeyBy(pos, func(p link.Position) link.PositionKind { return p.Kind })
	assert.Equal(t, 37.5, byKind[link.PositionBuffer].Distance)
	assert.Equal(t, int32(1), byKind[link.PositionBuffer].VehicleID)
	// 队列车辆排在缓冲区车辆之后一个车间距
	assert.Equal(t, 30., byKind[link.PositionQueue].Distance)
	assert.Equal(t, 0., byKind[link.PositionWaiting].Distance)
	assert.Equal(t, 37.5, byKind[link.PositionParked].Distance)
	assert.Equal(t, int32(-1), byKind[link.PositionActivity].VehicleID)

	l.RemoveAgentInActivity(5)
	assert.Empty(t, l.AgentsInActivity())
}
