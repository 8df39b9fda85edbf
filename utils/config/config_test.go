package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
)

const sample = `
input:
  network:
    file: data/network.yaml
  lanes:
    file: data/lanes.yaml
  persons:
    db: sim
    col: persons
control:
  step:
    start: 0
    total: 3600
    interval: 1
  stuck_time: 60
  parallel: true
output:
  snapshot: out/snap
`

func TestParseAndDefaults(t *testing.T) {
	c, err := config.Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "data/network.yaml", c.Input.Network.File)
	require.NotNil(t, c.Input.Lanes)
	assert.Nil(t, c.Input.Signals)
	assert.Equal(t, "persons", c.Input.Persons.GetColl())
	assert.Equal(t, int32(3600), c.Control.Step.Total)

	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, 1.0, rc.C.FlowCapacityFactor)
	assert.Equal(t, 1.0, rc.C.StorageCapacityFactor)
	assert.Equal(t, config.DefaultEffectiveCellSize, rc.C.EffectiveCellSize)
	assert.Equal(t, 60.0, rc.C.StuckTime)
	assert.True(t, rc.C.Parallel)
	assert.Equal(t, config.DefaultBatch, rc.O.Batch)
	assert.Equal(t, int32(1), rc.O.SnapshotInterval)
}

func TestParseStrict(t *testing.T) {
	_, err := config.Parse([]byte("control:\n  unknown_key: 1\n"))
	assert.Error(t, err)
}
