package randengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscreteDistribution(t *testing.T) {
	e := New(1)
	cnt := make([]int, 3)
	for i := 0; i < 10000; i++ {
		cnt[e.DiscreteDistribution([]float64{1, 0, 3})]++
	}
	assert.Zero(t, cnt[1])
	assert.InDelta(t, 0.25, float64(cnt[0])/10000, 0.03)
	assert.InDelta(t, 0.75, float64(cnt[2])/10000, 0.03)
}

func TestDiscreteDistributionPanicsOnZeroWeight(t *testing.T) {
	e := New(1)
	assert.Panics(t, func() { e.DiscreteDistribution([]float64{0, 0}) })
}

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uniform(2, 5), b.Uniform(2, 5))
	}
	assert.False(t, a.PTrue(0))
	assert.True(t, a.PTrue(1))
}
