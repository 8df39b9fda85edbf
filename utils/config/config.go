package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultEffectiveCellSize = 7.5  // 单车占用长度（米）
	DefaultStuckTime         = 100. // 卡死判定时长（秒）
	DefaultBatch             = 1000 // 事件批量写入大小
)

// RuntimeConfig 运行时配置
// 功能：在原始配置基础上补齐默认值，供各模块只读访问
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置（已补齐默认值）
	O   Output  // 输出配置（已补齐默认值）
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 算法说明：
// 1. 通行/存储能力系数未设置时取1
// 2. 单车占用长度、卡死时长、批量大小、快照间隔取默认值
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{
		All: config,
		C:   config.Control,
		O:   config.Output,
	}
	if rc.C.FlowCapacityFactor <= 0 {
		rc.C.FlowCapacityFactor = 1
	}
	if rc.C.StorageCapacityFactor <= 0 {
		rc.C.StorageCapacityFactor = 1
	}
	if rc.C.EffectiveCellSize <= 0 {
		rc.C.EffectiveCellSize = DefaultEffectiveCellSize
	}
	if rc.C.StuckTime <= 0 {
		rc.C.StuckTime = DefaultStuckTime
	}
	if rc.C.Step.Interval <= 0 {
		rc.C.Step.Interval = 1
	}
	if rc.O.Batch <= 0 {
		rc.O.Batch = DefaultBatch
	}
	if rc.O.SnapshotInterval <= 0 {
		rc.O.SnapshotInterval = 1
	}
	return rc
}

// Parse 严格解析YAML配置
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrap(err, "config file load err")
	}
	return c, nil
}

// Load 从文件读取并解析配置
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config file %s", path)
	}
	return Parse(data)
}
