package link

import (
	"fmt"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/container"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// LinkManager Link管理器
// 功能：管理所有路段，负责构建车道图、查找路段以及推进活跃路段
// 说明：实现entity.ILinkActivator，只有被激活的路段会在每一步被推进
type LinkManager struct {
	params lane.Params

	data   map[int32]*Link
	links  []*Link
	active *container.IncrementalArray[*Link]
}

// NewManager 创建Link管理器
// 参数：params-车道能力计算参数
func NewManager(params lane.Params) *LinkManager {
	return &LinkManager{
		params: params,
		data:   make(map[int32]*Link),
		links:  make([]*Link, 0),
		active: container.NewIncrementalArray[*Link](),
	}
}

// Init 初始化所有路段，车道图构建失败时panic
func (m *LinkManager) Init(network *input.Network, lanes []*input.LanesToLink) {
	if err := m.Build(network, lanes); err != nil {
		log.Panicf("build links failed: %+v", err)
	}
}

// Build 初始化所有路段
// 算法说明：
// 1. 按路段ID整理车道定义，统计每个节点的出路段
// 2. 并行构建每条路段的车道图，没有车道定义的路段使用默认车道
// 3. 返回遇到的第一个构建错误（按路段顺序）
func (m *LinkManager) Build(network *input.Network, lanes []*input.LanesToLink) error {
	params := m.params
	params.CapacityPeriod = network.CapacityPeriod
	if params.CapacityPeriod <= 0 {
		params.CapacityPeriod = input.DefaultCapacityPeriod
	}
	defs := make(map[int32][]*input.Lane, len(lanes))
	for _, l2l := range lanes {
		defs[l2l.LinkID] = append(defs[l2l.LinkID], l2l.Lanes...)
	}
	outLinks := make(map[int32][]int32)
	for _, l := range network.Links {
		outLinks[l.From] = append(outLinks[l.From], l.ID)
	}
	for _, ids := range outLinks {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	type result struct {
		link *Link
		err  error
	}
	results := parallel.GoMap(network.Links, func(base *input.Link) result {
		attrs := lane.LinkAttrs{
			ID:        base.ID,
			Length:    base.Length,
			FreeSpeed: base.FreeSpeed,
			Capacity:  base.Capacity,
			NumLanes:  base.NumLanes,
		}
		var ls []*lane.Lane
		if d, ok := defs[base.ID]; ok {
			var err error
			if ls, err = buildLanes(attrs, d, params); err != nil {
				return result{err: err}
			}
		} else {
			if err := validateAttrs(attrs); err != nil {
				return result{err: err}
			}
			ls = defaultLane(attrs, outLinks[base.To], params)
		}
		return result{link: newLink(base, ls, m)}
	})
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	m.links = lo.Map(results, func(r result, _ int) *Link { return r.link })
	m.data = lo.SliceToMap(m.links, func(l *Link) (int32, *Link) {
		return l.id, l
	})
	for id := range defs {
		if _, ok := m.data[id]; !ok {
			return errors.Errorf("lane definitions for unknown link %d", id)
		}
	}
	log.Infof("links: %d (%d with lane definitions)", len(m.links), len(defs))
	return nil
}

// Get 根据ID获取Link实例，如果不存在则panic
func (m *LinkManager) Get(id int32) entity.ILink {
	if l, ok := m.data[id]; !ok {
		log.Panicf("no id %d in link data", id)
		return nil
	} else {
		return l
	}
}

// GetOrError 根据ID获取Link实例，如果不存在则返回错误
func (m *LinkManager) GetOrError(id int32) (entity.ILink, error) {
	if l, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in link data", id)
	} else {
		return l, nil
	}
}

// Link 根据ID获取具体的Link，不存在时返回nil
func (m *LinkManager) Link(id int32) *Link {
	return m.data[id]
}

func (m *LinkManager) Links() []*Link {
	return m.links
}

// ActivateLink 登记活跃路段，下一次Update时生效
func (m *LinkManager) ActivateLink(l entity.ILink) {
	m.active.Add(l.(*Link))
}

// ActiveLinks 当前生效的活跃路段
func (m *LinkManager) ActiveLinks() []*Link {
	return m.active.Data()
}

// Update 推进所有活跃路段，不再活跃的路段在下一次Update时移除
func (m *LinkManager) Update(ctx entity.ITickContext) {
	m.active.Prepare()
	step := func(l *Link) {
		if !l.MoveLink(ctx) {
			m.active.Remove(l)
		}
	}
	if ctx.RuntimeConfig().C.Parallel {
		parallel.GoFor(m.active.Data(), step)
	} else {
		for _, l := range m.active.Data() {
			step(l)
		}
	}
}

// ClearVehicles 清空所有路段
func (m *LinkManager) ClearVehicles(ctx entity.ITickContext) {
	for _, l := range m.links {
		l.ClearVehicles(ctx)
	}
	m.active.Prepare()
	for _, l := range m.active.Data() {
		m.active.Remove(l)
	}
	m.active.Prepare()
}
