package person_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/entitytest"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/link"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/node"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/person"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

type world struct {
	ctx *entitytest.TickContext
	lm  *link.LinkManager
	nm  *node.NodeManager
	pm  *person.PersonManager
}

func newWorld(t *testing.T, persons []*input.Person) *world {
	network := &input.Network{
		Nodes: []*input.Node{{ID: 1}, {ID: 2}, {ID: 3}},
		Links: []*input.Link{
			{ID: 1, From: 1, To: 2, Length: 37.5, FreeSpeed: 15, Capacity: 3600, NumLanes: 1},
			{ID: 2, From: 2, To: 3, Length: 37.5, FreeSpeed: 15, Capacity: 3600, NumLanes: 1},
		},
	}
	w := &world{ctx: entitytest.NewTickContext()}
	w.lm = link.NewManager(lane.Params{DT: 1, FlowCapacityFactor: 1, StorageCapacityFactor: 1, EffectiveCellSize: 7.5})
	require.NoError(t, w.lm.Build(network, nil))
	w.nm = node.NewManager(0)
	w.nm.Init(network, w.lm)
	w.pm = person.NewManager(w.ctx)
	w.pm.Init(persons, w.lm)
	return w
}

func (w *world) run(until float64) {
	for ; w.ctx.T <= until; w.ctx.T++ {
		w.pm.Update(w.ctx)
		w.nm.Update(w.ctx)
		w.lm.Update(w.ctx)
	}
}

func TestTwoTrips(t *testing.T) {
	w := newWorld(t, []*input.Person{
		{ID: 7, Trips: []*input.Trip{
			{Departure: 0, Route: []int32{1, 2}},
			{Departure: 100, Mode: "walk", Route: []int32{2}},
		}},
		{ID: 8},
	})
	require.Len(t, w.pm.Persons(), 1)
	_, err := w.pm.GetOrError(8)
	assert.Error(t, err)
	p := w.pm.Get(7)
	assert.Equal(t, int64(1), w.ctx.Counter.Living())
	assert.Equal(t, p.Vehicle(), w.lm.Link(1).GetParkedVehicle(7))
	assert.Len(t, w.lm.Link(1).AgentsInActivity(), 1)

	w.run(0)
	assert.True(t, p.InLeg())
	assert.Empty(t, w.lm.Link(1).AgentsInActivity())
	assert.Equal(t, entity.VehicleStateBuffered, p.Vehicle().State())

	w.run(4)
	assert.False(t, p.InLeg())
	assert.Equal(t, int32(2), p.CurrentLinkID())
	assert.Equal(t, p.Vehicle(), w.lm.Link(2).GetParkedVehicle(7))
	assert.Equal(t, 1, w.pm.PendingDepartures())
	rt := w.pm.Runtime()
	assert.Equal(t, int32(1), rt.NumCompletedTrips)
	assert.Equal(t, 4., rt.TravelTime)
	assert.Equal(t, 37.5, rt.TravelDistance)

	w.run(100)
	assert.True(t, p.Done())
	assert.Zero(t, w.ctx.Counter.Living())
	assert.Equal(t, int32(2), w.pm.Runtime().NumCompletedTrips)
	dep := w.ctx.Collector.OfType(events.TypeAgentDeparture)
	arr := w.ctx.Collector.OfType(events.TypeAgentArrival)
	require.Len(t, dep, 2)
	require.Len(t, arr, 2)
	assert.Equal(t, "car", arr[0].Mode)
	assert.Equal(t, "walk", arr[1].Mode)
	assert.Equal(t, 100., arr[1].Time)
	assert.Equal(t, int32(2), arr[1].LinkID)
}

func TestNextTripMustStartWhereArrived(t *testing.T) {
	w := newWorld(t, []*input.Person{
		{ID: 1, Trips: []*input.Trip{
			{Departure: 0, Route: []int32{1, 2}},
			{Departure: 50, Route: []int32{1}},
		}},
	})
	assert.Panics(t, func() { w.run(10) })
}

func TestEmptyRoutePanics(t *testing.T) {
	assert.Panics(t, func() {
		newWorld(t, []*input.Person{{ID: 1, Trips: []*input.Trip{{Departure: 0}}}})
	})
}
