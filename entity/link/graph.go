package link

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

var (
	ErrNoLanes                = errors.New("no lane definitions")
	ErrRootLaneNotAtLinkStart = errors.New("first lane does not start at link length")
	ErrAmbiguousSuccessors    = errors.New("lane has both to-lanes and to-links")
	ErrNoSuccessors           = errors.New("lane has neither to-lanes nor to-links")
	ErrUnknownLane            = errors.New("to-lane references unknown lane")
	ErrSuccessorNotDownstream = errors.New("to-lane does not start downstream of lane start")
	ErrDuplicateLane          = errors.New("duplicated lane id")
	ErrInvalidLinkAttrs       = errors.New("link length and free speed must be positive")
)

// validateAttrs 路段长度与自由流速度必须为正，否则车辆可能在一步内越过多个车道
func validateAttrs(attrs lane.LinkAttrs) error {
	if attrs.Length <= 0 || attrs.FreeSpeed <= 0 {
		return errors.Wrapf(ErrInvalidLinkAttrs, "link %d length %v freespeed %v", attrs.ID, attrs.Length, attrs.FreeSpeed)
	}
	return nil
}

// buildLanes 根据车道定义构建路段内的车道图
// 参数：attrs-路段属性，defs-无序的车道定义，params-能力计算参数
// 返回：按起点到路段终点距离降序排列的车道（下标0为根车道），或构建错误
// 算法说明：
// 1. 按起点降序排序，第一条车道必须从路段起点开始
// 2. 从根车道广度优先遍历：有下游车道的车道终点为下游车道起点的最小值；没有下游车道的为末端车道，终点为0
// 3. 按起点升序（下游车道总是先于上游车道）计算能力并反向传播可到达的下游路段
// 4. 按起点降序稳定排序，根车道保持在首位，把车道ID形式的边换成数组下标
func buildLanes(attrs lane.LinkAttrs, defs []*input.Lane, params lane.Params) ([]*lane.Lane, error) {
	if err := validateAttrs(attrs); err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, errors.Wrapf(ErrNoLanes, "link %d", attrs.ID)
	}
	sorted := append([]*input.Lane(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartsAt > sorted[j].StartsAt })
	defByID := make(map[int32]*input.Lane, len(sorted))
	for _, d := range sorted {
		if len(d.ToLanes) > 0 && len(d.ToLinks) > 0 {
			return nil, errors.Wrapf(ErrAmbiguousSuccessors, "link %d lane %d", attrs.ID, d.ID)
		}
		if len(d.ToLanes) == 0 && len(d.ToLinks) == 0 {
			return nil, errors.Wrapf(ErrNoSuccessors, "link %d lane %d", attrs.ID, d.ID)
		}
		if _, ok := defByID[d.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateLane, "link %d lane %d", attrs.ID, d.ID)
		}
		defByID[d.ID] = d
	}
	rootDef := sorted[0]
	if rootDef.StartsAt != attrs.Length {
		return nil, errors.Wrapf(ErrRootLaneNotAtLinkStart, "link %d lane %d starts at %v, link length %v",
			attrs.ID, rootDef.ID, rootDef.StartsAt, attrs.Length)
	}

	// 广度优先构建
	created := map[int32]*lane.Lane{rootDef.ID: lane.New(attrs.ID, rootDef)}
	order := []*lane.Lane{created[rootDef.ID]}
	for head := 0; head < len(order); head++ {
		cur := order[head]
		def := defByID[cur.ID()]
		if len(def.ToLanes) == 0 {
			cur.SetEndsAt(0)
			continue
		}
		minStart := def.StartsAt
		for _, toID := range def.ToLanes {
			toDef, ok := defByID[toID]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownLane, "link %d lane %d -> %d", attrs.ID, def.ID, toID)
			}
			if toDef.StartsAt >= def.StartsAt {
				return nil, errors.Wrapf(ErrSuccessorNotDownstream, "link %d lane %d (%v) -> %d (%v)",
					attrs.ID, def.ID, def.StartsAt, toID, toDef.StartsAt)
			}
			if _, ok := created[toID]; !ok {
				created[toID] = lane.New(attrs.ID, toDef)
				order = append(order, created[toID])
			}
			minStart = min(minStart, toDef.StartsAt)
		}
		cur.SetEndsAt(minStart)
	}
	if len(order) < len(sorted) {
		log.Warnf("link %d: %d lane definitions are unreachable from root lane %d",
			attrs.ID, len(sorted)-len(order), rootDef.ID)
	}

	// 按起点降序排序，根车道起点最大且最先构建，稳定排序后保持在首位
	lanes := append([]*lane.Lane(nil), order...)
	sort.SliceStable(lanes, func(i, j int) bool { return lanes[i].StartsAt() > lanes[j].StartsAt() })
	index := make(map[int32]int, len(lanes))
	for i, l := range lanes {
		index[l.ID()] = i
	}
	for _, l := range lanes {
		def := defByID[l.ID()]
		if len(def.ToLanes) == 0 {
			continue
		}
		toLanes := make([]int, len(def.ToLanes))
		for i, toID := range def.ToLanes {
			toLanes[i] = index[toID]
		}
		l.SetToLanes(toLanes)
	}

	// 下游车道先于上游车道完成
	for i := len(lanes) - 1; i >= 0; i-- {
		l := lanes[i]
		l.CalculateCapacities(attrs, params)
		if l.IsToNodeLane() {
			for _, id := range l.ToLinkIDs() {
				l.AddDestinationLink(id)
			}
			continue
		}
		for _, j := range l.ToLanes() {
			for _, id := range lanes[j].DestinationLinkIDs() {
				l.AddDestinationLink(id)
			}
		}
	}
	return lanes, nil
}

// defaultLane 没有车道定义的路段使用一条覆盖全长的车道，可到达下游路口的所有出路段
func defaultLane(attrs lane.LinkAttrs, outLinks []int32, params lane.Params) []*lane.Lane {
	l := lane.New(attrs.ID, &input.Lane{
		ID:               attrs.ID,
		StartsAt:         attrs.Length,
		RepresentedLanes: attrs.NumLanes,
		ToLinks:          outLinks,
	})
	l.CalculateCapacities(attrs, params)
	for _, id := range outLinks {
		l.AddDestinationLink(id)
	}
	return []*lane.Lane{l}
}
