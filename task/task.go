package task

import (
	"context"
	"sync/atomic"

	"git.fiblab.net/general/common/v2/mongoutil"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/queuesim-oss/clock"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/lane"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/link"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/node"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/person"
	"github.com/tsinghua-fib-lab/queuesim-oss/entity/signal"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/output"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
	"go.mongodb.org/mongo-driver/mongo"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，并作为单步调用上下文传给各管理器
// 说明：实现entity.ITickContext
type Context struct {
	// 停止指令，在当前步结束时生效
	stopped atomic.Bool
	closed  atomic.Bool

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下与syncer的交互，为nil时独立运行
	sidecar *syncer.Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}

	// 事件出口
	events *events.Manager
	// 智能体计数
	counter events.AgentCounter
	// 事件输出数据库连接
	mongoClient *mongo.Client

	linkManager   *link.LinkManager
	nodeManager   *node.NodeManager
	signalManager *signal.SignalManager
	personManager *person.PersonManager

	// 位置快照输出，未配置时为nil
	snapshot *output.SnapshotWriter

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建新的仿真任务上下文
// 参数：
//   - c: 配置对象
//   - in: 已加载的输入数据
//   - sidecar: syncer辅助程序，为nil时独立运行
//
// 返回：尚未初始化路网与人员的Context实例
// 算法说明：
// 1. 创建时钟、事件管理器与运行时配置
// 2. 按配置挂载事件输出数据库
// 3. 创建路段、路口、信号、人员管理器与快照输出
// 4. 注册时钟RPC并启动sidecar服务
func NewContext(c config.Config, in *input.Input, sidecar *syncer.Sidecar) *Context {
	ctx := &Context{
		clock:          clock.New(c.Control.Step),
		sidecar:        sidecar,
		sidecarCloseCh: make(chan struct{}),
		events:         events.NewManager(),
		runtimeConfig:  config.NewRuntimeConfig(c),
		initRes:        in,
	}
	rc := ctx.runtimeConfig

	if rc.O.URI != "" {
		ctx.mongoClient = mongoutil.NewClient(rc.O.URI)
		coll := ctx.mongoClient.Database(rc.O.DB).Collection(rc.O.Col)
		ctx.events.AddHandler(events.NewMongoWriter(coll, rc.O.Batch))
	}

	ctx.linkManager = link.NewManager(lane.Params{
		DT:                    ctx.clock.DT,
		FlowCapacityFactor:    rc.C.FlowCapacityFactor,
		StorageCapacityFactor: rc.C.StorageCapacityFactor,
		EffectiveCellSize:     rc.C.EffectiveCellSize,
	})
	ctx.nodeManager = node.NewManager(rc.C.Seed)
	ctx.signalManager = signal.NewManager()
	ctx.personManager = person.NewManager(ctx)
	if rc.O.Snapshot != "" {
		ctx.snapshot = output.NewSnapshotWriter(rc.O.Snapshot, rc.O.SnapshotInterval, in.Network, ctx.linkManager)
	}

	if ctx.sidecar != nil {
		ctx.clock.Register(ctx.sidecar)
		// sidecar协程，用于提供gRPC服务
		go func() {
			if err := ctx.sidecar.Serve(); err != nil {
				log.Panicf("failed to serve: %v", err)
			}
			ctx.sidecarCloseCh <- struct{}{}
		}()
	}
	return ctx
}

func (ctx *Context) Now() float64 {
	return ctx.clock.T
}

func (ctx *Context) ProcessEvent(e events.Event) {
	ctx.events.ProcessEvent(e)
}

func (ctx *Context) AgentCounter() *events.AgentCounter {
	return &ctx.counter
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// Events 事件管理器，可在Run之前注册额外的处理器
func (ctx *Context) Events() *events.Manager {
	return ctx.events
}

func (ctx *Context) LinkManager() entity.ILinkManager {
	return ctx.linkManager
}

func (ctx *Context) NodeManager() entity.INodeManager {
	return ctx.nodeManager
}

func (ctx *Context) PersonManager() entity.IPersonManager {
	return ctx.personManager
}

// Init 构建路网、挂载信号灯、放置人员
func (ctx *Context) Init() {
	ctx.clock.Init()

	initRes := ctx.initRes
	ctx.linkManager.Init(initRes.Network, initRes.Lanes) // 先完成路段与车道的构建
	ctx.nodeManager.Init(initRes.Network, ctx.linkManager)
	if err := ctx.signalManager.Init(initRes.Signals, ctx.linkManager); err != nil {
		log.Panicf("failed to init signals: %v", err)
	}
	// 完成路网构建后，开始构建person
	ctx.personManager.Init(initRes.Persons, ctx.linkManager)
}

// Stop 请求在当前步结束时停止运行，可从其他协程调用
func (ctx *Context) Stop() {
	ctx.stopped.Store(true)
}

// Close 停止sidecar服务并断开数据库连接
func (ctx *Context) Close() {
	if ctx.closed.Swap(true) {
		return
	}
	if ctx.sidecar != nil {
		ctx.sidecar.Close()
		// wait for graceful stop
		<-ctx.sidecarCloseCh
	}
	if ctx.mongoClient != nil {
		if err := ctx.mongoClient.Disconnect(context.Background()); err != nil {
			log.Errorf("mongo disconnect err: %v", err)
		}
	}
}
