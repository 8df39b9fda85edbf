package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/queuesim-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// plan 出行计划：按顺序执行的一组出行
type plan struct {
	trips   []*input.Trip
	current int
}

func (p *plan) trip() *input.Trip {
	return p.trips[p.current]
}

// advance 切换到下一次出行，没有下一次出行时返回false
func (p *plan) advance() bool {
	if p.current+1 >= len(p.trips) {
		return false
	}
	p.current++
	return true
}

// routeFollower 沿路段序列行驶
type routeFollower struct {
	route []int32
	pos   int
}

func (r *routeFollower) currentLinkID() int32 {
	return r.route[r.pos]
}

func (r *routeFollower) nextLinkID() (int32, bool) {
	if r.pos+1 < len(r.route) {
		return r.route[r.pos+1], true
	}
	return 0, false
}

func (r *routeFollower) advance() {
	if r.pos+1 >= len(r.route) {
		log.Panicf("move over node at the end of route %v", r.route)
	}
	r.pos++
}

// Person 人
// 功能：由出行计划与路径跟随两项能力组成，作为驾驶者驱动自己的车辆
type Person struct {
	id      int32
	manager *PersonManager
	vehicle *vehicle.Vehicle

	plan  plan
	leg   routeFollower
	inLeg bool
	legT0 float64 // 本次出行的出发时间
	done  bool
}

func (p *Person) String() string {
	return fmt.Sprintf("Person(%d)", p.id)
}

func (p *Person) PersonID() int32 {
	return p.id
}

func (p *Person) Mode() string {
	if m := p.plan.trip().Mode; m != "" {
		return m
	}
	return "car"
}

func (p *Person) NextLinkID() (int32, bool) {
	return p.leg.nextLinkID()
}

func (p *Person) MoveOverNode() {
	p.leg.advance()
}

// EndLeg 在linkID上结束本次出行
func (p *Person) EndLeg(now float64, linkID int32) {
	p.manager.arrive(p, now, linkID)
}

// Vehicle 人的车辆
func (p *Person) Vehicle() *vehicle.Vehicle {
	return p.vehicle
}

// CurrentLinkID 所在路段（出行中为路径上的当前路段，活动中为上次到达的路段）
func (p *Person) CurrentLinkID() int32 {
	return p.leg.currentLinkID()
}

// InLeg 是否处于出行中
func (p *Person) InLeg() bool {
	return p.inLeg
}

// Done 是否已完成全部出行
func (p *Person) Done() bool {
	return p.done
}
