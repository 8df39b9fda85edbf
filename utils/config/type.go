package config

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，文件优先于MongoDB
type InputPath struct {
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// Empty 是否未配置任何来源
func (p InputPath) Empty() bool {
	return p.File == "" && p.Col == ""
}

// Input 指定模拟器所有输入数据的配置项
type Input struct {
	URI      string     `yaml:"uri,omitempty"`     // MongoDB连接字符串
	Network  InputPath  `yaml:"network"`           // 路网（节点+路段）
	Lanes    *InputPath `yaml:"lanes,omitempty"`   // 车道定义，缺省时每条路段只有一条车道
	Signals  *InputPath `yaml:"signals,omitempty"` // 信号灯定义
	Persons  *InputPath `yaml:"persons,omitempty"` // 人员出行计划
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step                  ControlStep `yaml:"step"`
	FlowCapacityFactor    float64     `yaml:"flow_capacity_factor,omitempty"`    // 通行能力缩放系数，默认1
	StorageCapacityFactor float64     `yaml:"storage_capacity_factor,omitempty"` // 存储能力缩放系数，默认1
	EffectiveCellSize     float64     `yaml:"effective_cell_size,omitempty"`     // 单车占用长度（米），默认7.5
	StuckTime             float64     `yaml:"stuck_time,omitempty"`              // 缓冲区车辆等待超过该时长视为卡死（秒），默认100
	RemoveStuckVehicles   bool        `yaml:"remove_stuck_vehicles,omitempty"`   // 卡死车辆直接移除而不是强行通过路口
	Parallel              bool        `yaml:"parallel,omitempty"`                // 并行推进路段
	Seed                  uint64      `yaml:"seed,omitempty"`                    // 随机种子
}

// Output 输出配置
type Output struct {
	URI              string `yaml:"uri,omitempty"`               // 事件输出MongoDB连接字符串，为空则不写库
	DB               string `yaml:"db,omitempty"`                // 数据库名
	Col              string `yaml:"col,omitempty"`               // 事件集合名
	Batch            int    `yaml:"batch,omitempty"`             // 批量写入大小，默认1000
	Snapshot         string `yaml:"snapshot,omitempty"`          // 车辆位置快照（GeoJSON）输出文件前缀，为空则不输出
	SnapshotInterval int32  `yaml:"snapshot_interval,omitempty"` // 快照间隔步数，默认1
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`            // 输入
	Control Control `yaml:"control"`          // 模拟过程控制
	Output  Output  `yaml:"output,omitempty"` // 输出
}
