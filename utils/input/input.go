package input

import (
	"context"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v2"
)

const (
	DefaultCapacityPeriod = 3600. // 通行能力默认按小时计

	classHeader = "header"
	classNode   = "node"
	classLink   = "link"
	classSystem = "system"
	classGroup  = "group"
)

// Input 输入数据
type Input struct {
	Network *Network
	Lanes   []*LanesToLink
	Signals *Signals
	Persons []*Person
}

// Init 加载所有输入数据，失败则panic
func Init(c config.Config) *Input {
	res, err := Load(context.Background(), c)
	if err != nil {
		log.Panicf("failed to load input: %v", err)
	}
	return res
}

// Load 加载所有输入数据
// 算法说明：
// 1. 若配置了MongoDB URI则建立连接，结束后断开
// 2. 每类数据优先从文件读取（YAML），否则从MongoDB集合读取
// 3. 车道、信号、人员为可选输入
// 4. 补齐默认值并检查ID唯一性
func Load(ctx context.Context, c config.Config) (*Input, error) {
	var client *mongo.Client
	if c.Input.URI != "" {
		client = mongoutil.NewClient(c.Input.URI)
		defer client.Disconnect(context.Background())
	}
	res := &Input{
		Signals: &Signals{},
	}

	// 路网
	if c.Input.Network.File != "" {
		var network Network
		if err := loadYaml(c.Input.Network.File, &network); err != nil {
			return nil, err
		}
		res.Network = &network
	} else {
		network, err := loadNetworkFromMongo(ctx, client, c.Input.Network)
		if err != nil {
			return nil, err
		}
		res.Network = network
	}

	// 车道
	if p := c.Input.Lanes; p != nil && !p.Empty() {
		if p.File != "" {
			if err := loadYaml(p.File, &res.Lanes); err != nil {
				return nil, err
			}
		} else {
			lanes, err := loadAllFromMongo[LanesToLink](ctx, client, *p)
			if err != nil {
				return nil, err
			}
			res.Lanes = lanes
		}
	}

	// 信号灯
	if p := c.Input.Signals; p != nil && !p.Empty() {
		if p.File != "" {
			if err := loadYaml(p.File, res.Signals); err != nil {
				return nil, err
			}
		} else {
			signals, err := loadSignalsFromMongo(ctx, client, *p)
			if err != nil {
				return nil, err
			}
			res.Signals = signals
		}
	}

	// 人员
	if p := c.Input.Persons; p != nil && !p.Empty() {
		if p.File != "" {
			if err := loadYaml(p.File, &res.Persons); err != nil {
				return nil, err
			}
		} else {
			persons, err := loadAllFromMongo[Person](ctx, client, *p)
			if err != nil {
				return nil, err
			}
			res.Persons = persons
		}
	}

	if err := res.normalize(); err != nil {
		return nil, err
	}
	log.Infof("Node: %v", len(res.Network.Nodes))
	log.Infof("Link: %v", len(res.Network.Links))
	log.Infof("LanesToLink: %v", len(res.Lanes))
	log.Infof("SignalGroup: %v", len(res.Signals.Groups))
	log.Infof("Person: %v", len(res.Persons))
	return res, nil
}

// normalize 补齐默认值并检查ID重复
func (in *Input) normalize() error {
	if in.Network == nil {
		return errors.New("no network loaded")
	}
	if in.Network.CapacityPeriod <= 0 {
		in.Network.CapacityPeriod = DefaultCapacityPeriod
	}
	for _, l := range in.Network.Links {
		if l.NumLanes <= 0 {
			l.NumLanes = 1
		}
	}
	for _, l2l := range in.Lanes {
		for _, l := range l2l.Lanes {
			if l.RepresentedLanes <= 0 {
				l.RepresentedLanes = 1
			}
		}
	}
	for _, p := range in.Persons {
		if p.VehicleSize <= 0 {
			p.VehicleSize = 1
		}
	}
	if dup := lo.FindDuplicates(lo.Map(in.Network.Nodes, func(n *Node, _ int) int32 { return n.ID })); len(dup) > 0 {
		return errors.Errorf("nodes have duplicated ids %v", dup)
	}
	if dup := lo.FindDuplicates(lo.Map(in.Network.Links, func(l *Link, _ int) int32 { return l.ID })); len(dup) > 0 {
		return errors.Errorf("links have duplicated ids %v", dup)
	}
	if dup := lo.FindDuplicates(lo.Map(in.Persons, func(p *Person, _ int) int32 { return p.ID })); len(dup) > 0 {
		return errors.Errorf("persons have duplicated ids %v, please check data", dup)
	}
	return nil
}

// Parse 从YAML数据解析（用于测试与内嵌场景）
func Parse(data []byte, out any) error {
	return errors.Wrap(yaml.UnmarshalStrict(data, out), "yaml parse")
}

func loadYaml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.UnmarshalStrict(data, out); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	log.Infof("loaded %s", path)
	return nil
}

func collection(client *mongo.Client, p config.InputPath) (*mongo.Collection, error) {
	if client == nil {
		return nil, errors.Errorf("no mongodb uri for %s.%s", p.DB, p.Col)
	}
	return client.Database(p.GetDb()).Collection(p.GetColl()), nil
}

// loadAllFromMongo 读取集合中的全部文档
func loadAllFromMongo[T any](ctx context.Context, client *mongo.Client, p config.InputPath) ([]*T, error) {
	coll, err := collection(client, p)
	if err != nil {
		return nil, err
	}
	log.Infof("start fetching from %s.%s", p.DB, p.Col)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "find %s.%s", p.DB, p.Col)
	}
	var res []*T
	if err := cur.All(ctx, &res); err != nil {
		return nil, errors.Wrapf(err, "decode %s.%s", p.DB, p.Col)
	}
	log.Infof("finish fetching from %s.%s", p.DB, p.Col)
	return res, nil
}

// forEachClass 遍历集合，按文档的class字段分别解码
func forEachClass(ctx context.Context, client *mongo.Client, p config.InputPath, handle func(class string, raw bson.Raw) error) error {
	coll, err := collection(client, p)
	if err != nil {
		return err
	}
	log.Infof("start fetching from %s.%s", p.DB, p.Col)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return errors.Wrapf(err, "find %s.%s", p.DB, p.Col)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		class, ok := cur.Current.Lookup("class").StringValueOK()
		if !ok {
			return errors.Errorf("document without class in %s.%s", p.DB, p.Col)
		}
		if err := handle(class, cur.Current); err != nil {
			return errors.Wrapf(err, "%s.%s", p.DB, p.Col)
		}
	}
	log.Infof("finish fetching from %s.%s", p.DB, p.Col)
	return errors.Wrap(cur.Err(), "cursor")
}

func loadNetworkFromMongo(ctx context.Context, client *mongo.Client, p config.InputPath) (*Network, error) {
	network := &Network{}
	err := forEachClass(ctx, client, p, func(class string, raw bson.Raw) error {
		switch class {
		case classHeader:
			return bson.Unmarshal(raw, network)
		case classNode:
			var n Node
			if err := bson.Unmarshal(raw, &n); err != nil {
				return err
			}
			network.Nodes = append(network.Nodes, &n)
		case classLink:
			var l Link
			if err := bson.Unmarshal(raw, &l); err != nil {
				return err
			}
			network.Links = append(network.Links, &l)
		default:
			log.Warnf("unknown network class %s", class)
		}
		return nil
	})
	return network, err
}

func loadSignalsFromMongo(ctx context.Context, client *mongo.Client, p config.InputPath) (*Signals, error) {
	signals := &Signals{}
	err := forEachClass(ctx, client, p, func(class string, raw bson.Raw) error {
		switch class {
		case classSystem:
			var s SignalSystem
			if err := bson.Unmarshal(raw, &s); err != nil {
				return err
			}
			signals.Systems = append(signals.Systems, &s)
		case classGroup:
			var g SignalGroup
			if err := bson.Unmarshal(raw, &g); err != nil {
				return err
			}
			signals.Groups = append(signals.Groups, &g)
		default:
			log.Warnf("unknown signal class %s", class)
		}
		return nil
	})
	return signals, err
}
