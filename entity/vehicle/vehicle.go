package vehicle

import (
	"fmt"

	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
)

// Vehicle 车辆
// 功能：记录车辆所在路段、驾驶者与在路段内的状态
type Vehicle struct {
	id     int32
	size   float64
	driver entity.IDriver

	currentLinkID        int32
	earliestLinkExitTime float64
	state                entity.VehicleState
}

// New 创建车辆，size<=0时按1个当量计
func New(id int32, size float64, driver entity.IDriver) *Vehicle {
	if size <= 0 {
		size = 1
	}
	return &Vehicle{
		id:            id,
		size:          size,
		driver:        driver,
		currentLinkID: -1,
		state:         entity.VehicleStateNew,
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle(%d, link=%d, %v)", v.id, v.currentLinkID, v.state)
}

func (v *Vehicle) ID() int32 {
	return v.id
}

func (v *Vehicle) Size() float64 {
	return v.size
}

func (v *Vehicle) Driver() entity.IDriver {
	return v.driver
}

func (v *Vehicle) CurrentLinkID() int32 {
	return v.currentLinkID
}

func (v *Vehicle) SetCurrentLinkID(id int32) {
	v.currentLinkID = id
}

func (v *Vehicle) EarliestLinkExitTime() float64 {
	return v.earliestLinkExitTime
}

func (v *Vehicle) SetEarliestLinkExitTime(t float64) {
	v.earliestLinkExitTime = t
}

func (v *Vehicle) State() entity.VehicleState {
	return v.state
}

func (v *Vehicle) SetState(s entity.VehicleState) {
	v.state = s
}
