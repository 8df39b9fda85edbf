package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	clockv1 "git.fiblab.net/sim/protos/v2/go/city/clock/v1"
	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"git.fiblab.net/sim/syncer/v3"
)

// Register 在sidecar上暴露时钟查询服务，供同一仿真任务中的其他程序读取仿真时间
func (c *Clock) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(clockv1connect.ClockServiceName, c.newHandler)
}

func (c *Clock) newHandler(opts ...connect.HandlerOption) (string, http.Handler) {
	return clockv1connect.NewClockServiceHandler(c, opts...)
}

// Now 当前仿真时间（秒）
// 说明：分布式模式下syncer保证该调用发生在两步之间，读到的是最近一次Step后的时间
func (c *Clock) Now(ctx context.Context, in *connect.Request[clockv1.NowRequest]) (*connect.Response[clockv1.NowResponse], error) {
	return connect.NewResponse(&clockv1.NowResponse{T: c.Time()}), nil
}
