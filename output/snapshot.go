package output

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"git.fiblab.net/general/common/v2/geometry"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/link"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

const LaneWidth = 3.5 // 车道横向位置每单位对应的偏移（米）

// segment 路段在平面上的起终点
type segment struct {
	from, to geometry.Point
}

// SnapshotWriter 车辆位置快照输出
// 功能：每隔interval步把所有路段上的智能体位置写为一个GeoJSON文件
type SnapshotWriter struct {
	prefix   string
	interval int32
	links    *link.LinkManager
	segments map[int32]segment
}

// NewSnapshotWriter 创建快照输出
// 参数：prefix-输出文件前缀，interval-间隔步数，network-路网（提供节点坐标），links-路段管理器
func NewSnapshotWriter(prefix string, interval int32, network *input.Network, links *link.LinkManager) *SnapshotWriter {
	if interval <= 0 {
		interval = 1
	}
	nodes := lo.SliceToMap(network.Nodes, func(n *input.Node) (int32, geometry.Point) {
		return n.ID, geometry.Point{X: n.X, Y: n.Y}
	})
	segments := make(map[int32]segment, len(network.Links))
	for _, l := range network.Links {
		segments[l.ID] = segment{from: nodes[l.From], to: nodes[l.To]}
	}
	return &SnapshotWriter{
		prefix:   prefix,
		interval: interval,
		links:    links,
		segments: segments,
	}
}

// Path 第step步快照的文件路径
func (w *SnapshotWriter) Path(step int32) string {
	return fmt.Sprintf("%s_%06d.geojson", w.prefix, step)
}

// Write 在间隔步上输出快照
func (w *SnapshotWriter) Write(step int32, now float64) error {
	if step%w.interval != 0 {
		return nil
	}
	fc := geojson.NewFeatureCollection()
	for _, l := range w.links.Links() {
		seg, ok := w.segments[l.ID()]
		if !ok {
			continue
		}
		for _, pos := range link.VehiclePositions(now, l.SnapshotInput()) {
			fc.AddFeature(positionFeature(now, seg, l.Length(), pos))
		}
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	path := w.Path(step)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log.Debugf("snapshot %s: %d features", path, len(fc.Features))
	return nil
}

// positionFeature 把路段上的位置转换为点要素
// 算法说明：沿起终点连线按距离插值，再按车道横向位置向行驶方向右侧偏移
func positionFeature(now float64, seg segment, length float64, pos link.Position) *geojson.Feature {
	k := 0.
	if length > 0 {
		k = lo.Clamp(pos.Distance/length, 0, 1)
	}
	xy := geometry.Blend(seg.from, seg.to, k)
	dx, dy := seg.to.X-seg.from.X, seg.to.Y-seg.from.Y
	if norm := math.Hypot(dx, dy); norm > 0 && pos.Alignment != 0 {
		offset := float64(pos.Alignment) * LaneWidth
		xy.X += dy / norm * offset
		xy.Y -= dx / norm * offset
	}
	f := geojson.NewPointFeature([]float64{xy.X, xy.Y})
	f.SetProperty("time", now)
	f.SetProperty("person", pos.PersonID)
	f.SetProperty("vehicle", pos.VehicleID)
	f.SetProperty("link", pos.LinkID)
	f.SetProperty("lane", pos.LaneID)
	f.SetProperty("kind", string(pos.Kind))
	return f
}
