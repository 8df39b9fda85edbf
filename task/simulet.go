package task

import (
	"flag"

	"github.com/tsinghua-fib-lab/queuesim-oss/entity/person"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
)

const (
	SelfName = "queuesim" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// Summary 仿真结束时的统计
type Summary struct {
	Steps   int32
	Living  int64 // 结束时仍在仿真中的智能体
	Lost    int64 // 因卡死被移除的智能体
	Runtime person.GlobalRuntime
	Events  map[events.EventType]int
}

// prepare 准备阶段，每步执行一次
// 功能：输出心跳日志
func (ctx *Context) prepare() {
	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		log.Infof(
			"STEP: %d(%v) living=%d active_links=%d",
			ctx.clock.InternalStep, ctx.clock,
			ctx.counter.Living(), len(ctx.linkManager.ActiveLinks()),
		)
	}
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 到时出发的人员进入出发路段的等待列表
// 2. 路口把上游缓冲区车辆放到下游路段
// 3. 活跃路段推进：到达、行驶队列到缓冲区、车道间移动、等待列表进入缓冲区
// 4. 按间隔输出位置快照
func (ctx *Context) update() {
	ctx.personManager.Update(ctx)
	ctx.nodeManager.Update(ctx)
	ctx.linkManager.Update(ctx)
	if ctx.snapshot != nil {
		if err := ctx.snapshot.Write(ctx.clock.InternalStep, ctx.clock.T); err != nil {
			log.Errorf("snapshot err: %v", err)
		}
	}
}

// teardown 仿真结束：移除路网上的所有车辆并落盘事件
func (ctx *Context) teardown() {
	ctx.linkManager.ClearVehicles(ctx)
	if err := ctx.events.Finish(); err != nil {
		log.Errorf("finish events err: %v", err)
	}
	rt := ctx.personManager.Runtime()
	log.Infof(
		"trips=%d travel_time=%.1f travel_distance=%.1f living=%d lost=%d",
		rt.NumCompletedTrips, rt.TravelTime, rt.TravelDistance,
		ctx.counter.Living(), ctx.counter.Lost(),
	)
}

// Run 运行
// 说明：独立运行时在结束步停止；分布式模式下由syncer决定何时停止
func (ctx *Context) Run() Summary {
	// 初始化
	ctx.Init()
	// init syncer
	if ctx.sidecar != nil {
		ctx.sidecar.Step(false)
	}
	for !ctx.clock.Done() {
		ctx.prepare()
		if ctx.sidecar != nil {
			// 通知准备阶段完成
			log.Debugf("step %d: prepare complete and call NotifyStepReady", ctx.clock.InternalStep)
			ctx.sidecar.NotifyStepReady()
		}
		ctx.update()
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		ctx.clock.Step()
		close := false
		if ctx.sidecar != nil {
			close = ctx.sidecar.Step(ctx.clock.Done())
		}
		if close || ctx.stopped.Load() {
			break
		}
	}
	// 清空路网会移除仍在路上的智能体，先记录结束时刻的数量
	living := ctx.counter.Living()
	ctx.teardown()
	log.Infof("engine complete")
	ctx.Close()

	counts := make(map[events.EventType]int)
	for _, t := range []events.EventType{
		events.TypeLinkEnter, events.TypeLinkLeave, events.TypeWait2Link,
		events.TypeAgentDeparture, events.TypeAgentArrival, events.TypeAgentStuck,
	} {
		counts[t] = ctx.events.Count(t)
	}
	return Summary{
		Steps:   ctx.clock.InternalStep - ctx.clock.START_STEP,
		Living:  living,
		Lost:    ctx.counter.Lost(),
		Runtime: ctx.personManager.Runtime(),
		Events:  counts,
	}
}
