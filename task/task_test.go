package task_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/queuesim-oss/events"
	"github.com/tsinghua-fib-lab/queuesim-oss/task"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/config"
	"github.com/tsinghua-fib-lab/queuesim-oss/utils/input"
)

const networkYaml = `
nodes:
  - {id: 1, x: 0, y: 0}
  - {id: 2, x: 37.5, y: 0}
  - {id: 3, x: 75, y: 0}
links:
  - {id: 1, from: 1, to: 2, length: 37.5, freespeed: 15, capacity: 3600, permlanes: 1}
  - {id: 2, from: 2, to: 3, length: 37.5, freespeed: 15, capacity: 3600, permlanes: 1}
`

const signalsYaml = `
systems:
  - {id: 1, cycle: 20}
groups:
  - {id: 1, system: 1, link: 1, green_start: 0, green_end: 10}
`

func personsYaml(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "- id: %d\n  trips:\n    - {departure: %d, route: [1, 2]}\n", i+1, i)
	}
	return b.String()
}

func newConfig(t *testing.T, persons int) config.Config {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return config.Config{
		Input: config.Input{
			Network: config.InputPath{File: write("network.yaml", networkYaml)},
			Signals: &config.InputPath{File: write("signals.yaml", signalsYaml)},
			Persons: &config.InputPath{File: write("persons.yaml", personsYaml(persons))},
		},
		Control: config.Control{
			Step: config.ControlStep{Start: 0, Total: 200, Interval: 1},
		},
		Output: config.Output{
			Snapshot:         filepath.Join(dir, "snap", "run"),
			SnapshotInterval: 50,
		},
	}
}

func run(t *testing.T, c config.Config) task.Summary {
	in, err := input.Load(context.Background(), c)
	require.NoError(t, err)
	return task.NewContext(c, in, nil).Run()
}

func TestRunAllArrive(t *testing.T) {
	c := newConfig(t, 10)
	s := run(t, c)
	assert.Equal(t, int32(200), s.Steps)
	assert.Zero(t, s.Living)
	assert.Zero(t, s.Lost)
	assert.Equal(t, int32(10), s.Runtime.NumCompletedTrips)
	assert.Equal(t, 375., s.Runtime.TravelDistance)
	assert.Equal(t, 10, s.Events[events.TypeAgentDeparture])
	assert.Equal(t, 10, s.Events[events.TypeAgentArrival])
	assert.Equal(t, 10, s.Events[events.TypeWait2Link])
	assert.Equal(t, 10, s.Events[events.TypeLinkLeave])
	assert.Equal(t, 10, s.Events[events.TypeLinkEnter])

	for _, step := range []int{0, 50, 100, 150} {
		_, err := os.Stat(fmt.Sprintf("%s_%06d.geojson", c.Output.Snapshot, step))
		assert.NoError(t, err, "step %d", step)
	}
	_, err := os.Stat(fmt.Sprintf("%s_%06d.geojson", c.Output.Snapshot, 25))
	assert.True(t, os.IsNotExist(err))
}

func TestRunParallelMatchesSequential(t *testing.T) {
	c := newConfig(t, 20)
	seq := run(t, c)
	c.Control.Parallel = true
	par := run(t, c)
	assert.Equal(t, seq.Runtime, par.Runtime)
	assert.Equal(t, seq.Events, par.Events)
}

func TestRunTooShort(t *testing.T) {
	c := newConfig(t, 5)
	c.Control.Step.Total = 2
	s := run(t, c)
	assert.Equal(t, int32(2), s.Steps)
	// 未到达的智能体在结束时被清除，仍在路网上的计入丢失
	assert.Positive(t, s.Living)
	assert.Positive(t, s.Lost)
	assert.Less(t, s.Events[events.TypeAgentArrival], 5)
}

func TestStop(t *testing.T) {
	c := newConfig(t, 10)
	in, err := input.Load(context.Background(), c)
	require.NoError(t, err)
	ctx := task.NewContext(c, in, nil)
	ctx.Events().AddHandler(events.HandlerFunc(func(e events.Event) {
		if e.Type == events.TypeAgentArrival {
			ctx.Stop()
		}
	}))
	s := ctx.Run()
	assert.Less(t, s.Steps, int32(200))
	assert.Equal(t, 1, s.Events[events.TypeAgentArrival])
}
