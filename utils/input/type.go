package input

// Node 路网节点（路口）
type Node struct {
	ID int32   `yaml:"id" bson:"id"`
	X  float64 `yaml:"x" bson:"x"`
	Y  float64 `yaml:"y" bson:"y"`
}

// Link 路段
type Link struct {
	ID        int32   `yaml:"id" bson:"id"`
	From      int32   `yaml:"from" bson:"from"`           // 上游节点
	To        int32   `yaml:"to" bson:"to"`               // 下游节点
	Length    float64 `yaml:"length" bson:"length"`       // 长度（米）
	FreeSpeed float64 `yaml:"freespeed" bson:"freespeed"` // 自由流速度（米/秒）
	Capacity  float64 `yaml:"capacity" bson:"capacity"`   // 通行能力（辆/capacity_period）
	NumLanes  float64 `yaml:"permlanes" bson:"permlanes"` // 车道数
}

// Network 路网
type Network struct {
	CapacityPeriod float64 `yaml:"capacity_period,omitempty" bson:"capacity_period,omitempty"` // 通行能力对应的时长（秒），默认3600
	Nodes          []*Node `yaml:"nodes" bson:"nodes"`
	Links          []*Link `yaml:"links" bson:"links"`
}

// Lane 车道定义
// 说明：ToLanes与ToLinks必须二选一
type Lane struct {
	ID               int32   `yaml:"id" bson:"id"`
	StartsAt         float64 `yaml:"starts_at" bson:"starts_at"`                                     // 起点到路段终点的距离（米）
	RepresentedLanes float64 `yaml:"represented_lanes,omitempty" bson:"represented_lanes,omitempty"` // 代表的物理车道数，默认1
	Alignment        int32   `yaml:"alignment,omitempty" bson:"alignment,omitempty"`                 // 横向位置，左负右正
	ToLanes          []int32 `yaml:"to_lanes,omitempty" bson:"to_lanes,omitempty"`
	ToLinks          []int32 `yaml:"to_links,omitempty" bson:"to_links,omitempty"`
}

// LanesToLink 一条路段上的车道定义集合
type LanesToLink struct {
	LinkID int32   `yaml:"link" bson:"link"`
	Lanes  []*Lane `yaml:"lanes" bson:"lanes"`
}

// SignalSystem 信号系统（一个路口的配时方案）
type SignalSystem struct {
	ID     int32   `yaml:"id" bson:"id"`
	Cycle  float64 `yaml:"cycle" bson:"cycle"`                       // 周期（秒）
	Offset float64 `yaml:"offset,omitempty" bson:"offset,omitempty"` // 同步偏移（秒）
}

// SignalGroup 信号灯组
// 说明：绿灯区间为周期内的[GreenStart, GreenEnd)，GreenEnd<GreenStart表示跨周期
type SignalGroup struct {
	ID         int32   `yaml:"id" bson:"id"`
	SystemID   int32   `yaml:"system" bson:"system"`
	LinkID     int32   `yaml:"link" bson:"link"`
	ToLinks    []int32 `yaml:"to_links,omitempty" bson:"to_links,omitempty"`
	GreenStart float64 `yaml:"green_start" bson:"green_start"`
	GreenEnd   float64 `yaml:"green_end" bson:"green_end"`
}

// Signals 信号灯定义
type Signals struct {
	Systems []*SignalSystem `yaml:"systems" bson:"systems"`
	Groups  []*SignalGroup  `yaml:"groups" bson:"groups"`
}

// Trip 一次出行
// 说明：Route为从出发路段到到达路段的完整路段序列
type Trip struct {
	Departure float64 `yaml:"departure" bson:"departure"`
	Mode      string  `yaml:"mode,omitempty" bson:"mode,omitempty"`
	Route     []int32 `yaml:"route" bson:"route"`
}

// Person 人员及其出行计划
type Person struct {
	ID          int32   `yaml:"id" bson:"id"`
	VehicleSize float64 `yaml:"vehicle_size,omitempty" bson:"vehicle_size,omitempty"` // 车辆当量，默认1
	Trips       []*Trip `yaml:"trips" bson:"trips"`
}
