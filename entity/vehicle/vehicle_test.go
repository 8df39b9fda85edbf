package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/vehicle"
)

func TestVehicle(t *testing.T) {
	v := vehicle.New(7, 0, nil)
	assert.Equal(t, int32(7), v.ID())
	assert.Equal(t, 1., v.Size())
	assert.Equal(t, int32(-1), v.CurrentLinkID())
	assert.Equal(t, entity.VehicleStateNew, v.State())
	assert.False(t, v.State().OnLink())

	v.SetCurrentLinkID(3)
	v.SetState(entity.VehicleStateBuffered)
	v.SetEarliestLinkExitTime(12.5)
	assert.Equal(t, int32(3), v.CurrentLinkID())
	assert.True(t, v.State().OnLink())
	assert.Equal(t, 12.5, v.EarliestLinkExitTime())
	assert.Equal(t, "Vehicle(7, link=3, buffered)", v.String())
	assert.Equal(t, "VehicleState(42)", entity.VehicleState(42).String())
}
