// 随机数引擎，包装了golang.org/x/exp/rand
package randengine

import (
	"flag"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量

	log = logrus.WithField("module", "randengine")
)

// Engine 随机数引擎
// 说明：非Safe方法只能在单个goroutine中使用
type Engine struct {
	*rand.Rand
	mtx sync.Mutex
}

// New 创建随机数引擎，实际种子为seed加上命令行给出的偏移量
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按权重抽取下标
// 参数：weight-各下标的非负权重，总和必须大于0
// 返回：[0, len(weight))内的下标
// 说明：路口按进口路段通行能力加权选择放行顺序时使用
func (e *Engine) DiscreteDistribution(weight []float64) int {
	total := 0.
	for _, w := range weight {
		total += w
	}
	if total <= 0 {
		log.Panicf("DiscreteDistribution: non-positive total weight %v", total)
	}
	target := total * e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > target {
			return i
		}
	}
	// 浮点误差，落在最后一个正权重上
	for i := len(weight) - 1; i >= 0; i-- {
		if weight[i] > 0 {
			return i
		}
	}
	return len(weight) - 1
}

// PTrue 以概率p返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Uniform 返回[lo, hi)内的均匀随机数
func (e *Engine) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*e.Float64()
}

// Float64Safe 线程安全的Float64
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}
