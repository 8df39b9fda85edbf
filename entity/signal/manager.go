package signal

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

// SignalManager 信号灯管理器
// 功能：根据信号系统与信号灯组定义创建固定配时信号灯组，并挂载到所在路段
type SignalManager struct {
	groups []*Group
}

func NewManager() *SignalManager {
	return &SignalManager{}
}

// Init 创建所有信号灯组并挂载到路段上与下游路口相邻的车道
// 说明：引用不存在的信号系统或路段时返回错误
func (m *SignalManager) Init(signals *input.Signals, linkManager entity.ILinkManager) error {
	if signals == nil {
		return nil
	}
	systems := lo.SliceToMap(signals.Systems, func(s *input.SignalSystem) (int32, *input.SignalSystem) {
		return s.ID, s
	})
	for _, base := range signals.Groups {
		system, ok := systems[base.SystemID]
		if !ok {
			return errors.Errorf("signal group %d: no signal system %d", base.ID, base.SystemID)
		}
		link, err := linkManager.GetOrError(base.LinkID)
		if err != nil {
			return errors.Wrapf(err, "signal group %d", base.ID)
		}
		g := newGroup(base, system)
		link.AddSignalGroupDefinition(g)
		m.groups = append(m.groups, g)
	}
	log.Infof("signal groups: %d in %d systems", len(m.groups), len(signals.Systems))
	return nil
}

func (m *SignalManager) Groups() []*Group {
	return m.groups
}
