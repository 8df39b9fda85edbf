package node

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/randengine"
)

// NodeManager Node管理器
// 功能：管理所有路口
type NodeManager struct {
	seed uint64

	data  map[int32]*Node
	nodes []*Node
}

// NewManager 创建Node管理器，每个路口的随机数种子为seed加路口ID
func NewManager(seed uint64) *NodeManager {
	return &NodeManager{
		seed:  seed,
		data:  make(map[int32]*Node),
		nodes: make([]*Node, 0),
	}
}

// Init 根据路网初始化所有路口，进出口路段按ID排序
// 说明：路段引用不存在的节点时panic
func (m *NodeManager) Init(network *input.Network, linkManager entity.ILinkManager) {
	m.nodes = lo.Map(network.Nodes, func(base *input.Node, _ int) *Node {
		return &Node{
			id:   base.ID,
			x:    base.X,
			y:    base.Y,
			outs: make(map[int32]entity.ILink),
			rng:  randengine.New(m.seed + uint64(uint32(base.ID))),
		}
	})
	m.data = lo.SliceToMap(m.nodes, func(n *Node) (int32, *Node) {
		return n.id, n
	})
	links := lo.Map(network.Links, func(l *input.Link, _ int) entity.ILink { return linkManager.Get(l.ID) })
	for _, l := range links {
		from, ok := m.data[l.FromNodeID()]
		if !ok {
			log.Panicf("%v: no from node %d", l, l.FromNodeID())
		}
		to, ok := m.data[l.ToNodeID()]
		if !ok {
			log.Panicf("%v: no to node %d", l, l.ToNodeID())
		}
		from.outLinks = append(from.outLinks, l)
		from.outs[l.ID()] = l
		to.inLinks = append(to.inLinks, l)
	}
	for _, n := range m.nodes {
		sortByID(n.inLinks)
		sortByID(n.outLinks)
	}
	sort.Slice(m.nodes, func(i, j int) bool { return m.nodes[i].id < m.nodes[j].id })
}

func sortByID(links []entity.ILink) {
	sort.Slice(links, func(i, j int) bool { return links[i].ID() < links[j].ID() })
}

// Get 根据ID获取Node实例，如果不存在则panic
func (m *NodeManager) Get(id int32) entity.INode {
	if n, ok := m.data[id]; !ok {
		log.Panicf("no id %d in node data", id)
		return nil
	} else {
		return n
	}
}

// GetOrError 根据ID获取Node实例，如果不存在则返回错误
func (m *NodeManager) GetOrError(id int32) (entity.INode, error) {
	if n, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in node data", id)
	} else {
		return n, nil
	}
}

// Node 根据ID获取具体的Node，不存在时返回nil
func (m *NodeManager) Node(id int32) *Node {
	return m.data[id]
}

func (m *NodeManager) Nodes() []*Node {
	return m.nodes
}

// Update 按ID顺序推进所有路口
// 说明：路段的缓冲区由下游路口读取、行驶队列由上游路口写入，共享存储计数，因此路口只能串行推进
func (m *NodeManager) Update(ctx entity.ITickContext) {
	for _, n := range m.nodes {
		n.moveNode(ctx)
	}
}
