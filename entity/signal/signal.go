package signal

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// Group 固定配时信号灯组
// 功能：在信号系统周期内的[greenStart, greenEnd)区间放行，greenEnd<greenStart表示绿灯跨越周期末尾
// 说明：周期不大于0时始终放行
type Group struct {
	id         int32
	linkID     int32
	toLinkIDs  []int32
	cycle      float64
	offset     float64
	greenStart float64
	greenEnd   float64
}

func newGroup(base *input.SignalGroup, system *input.SignalSystem) *Group {
	return &Group{
		id:         base.ID,
		linkID:     base.LinkID,
		toLinkIDs:  base.ToLinks,
		cycle:      system.Cycle,
		offset:     system.Offset,
		greenStart: base.GreenStart,
		greenEnd:   base.GreenEnd,
	}
}

func (g *Group) ID() int32 {
	return g.id
}

func (g *Group) LinkID() int32 {
	return g.linkID
}

func (g *Group) ToLinkIDs() []int32 {
	return g.toLinkIDs
}

// secondInCycle now在周期内的位置
func (g *Group) secondInCycle(now float64) float64 {
	t := math.Mod(now-g.offset, g.cycle)
	if t < 0 {
		t += g.cycle
	}
	return t
}

func (g *Group) IsGreen(now float64) bool {
	if g.cycle <= 0 {
		return true
	}
	t := g.secondInCycle(now)
	if g.greenStart <= g.greenEnd {
		return g.greenStart <= t && t < g.greenEnd
	}
	return t >= g.greenStart || t < g.greenEnd
}

// TimeToChange 距下一次灯色切换的时间，始终放行时为无穷大
func (g *Group) TimeToChange(now float64) float64 {
	if g.cycle <= 0 || g.greenStart == g.greenEnd {
		return mathutil.INF
	}
	t := g.secondInCycle(now)
	next := g.greenEnd
	if !g.IsGreen(now) {
		next = g.greenStart
	}
	d := next - t
	if d <= 0 {
		d += g.cycle
	}
	return d
}
