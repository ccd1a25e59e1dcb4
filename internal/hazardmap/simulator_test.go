package hazardmap_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_AddsReportEveryInterval(t *testing.T) {
	c, clock, _ := newController(t)
	require.NoError(t, c.Initialize(context.Background(), nil, nil))

	sim := hazardmap.NewSimulator(c, clock, 0, rand.New(rand.NewPCG(1, 2)), discardLogger())
	sim.Start(context.Background())
	t.Cleanup(sim.Stop)
	assert.True(t, sim.Running())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(hazardmap.DefaultSimulatorInterval)
	assert.Eventually(t, func() bool { return c.Snapshot().TotalCount == 1 }, time.Second, 5*time.Millisecond)

	v := c.Snapshot()
	require.Len(t, v.Markers, 1)
	m := v.Markers[0]
	assert.GreaterOrEqual(t, m.Lat, 8.0)
	assert.LessOrEqual(t, m.Lat, 33.0)
	assert.GreaterOrEqual(t, m.Lng, 70.0)
	assert.LessOrEqual(t, m.Lng, 105.0)
}

func TestSimulator_StopHaltsUpdates(t *testing.T) {
	c, clock, _ := newController(t)
	require.NoError(t, c.Initialize(context.Background(), nil, nil))

	sim := hazardmap.NewSimulator(c, clock, time.Second, rand.New(rand.NewPCG(3, 4)), discardLogger())
	sim.Start(context.Background())
	sim.Start(context.Background()) // no-op

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	sim.Stop()
	assert.False(t, sim.Running())
	clock.Advance(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, c.Snapshot().TotalCount)

	sim.Stop() // idempotent
}

func TestSimulator_Tick(t *testing.T) {
	c, clock, _ := newController(t)
	sim := hazardmap.NewSimulator(c, clock, 0, rand.New(rand.NewPCG(5, 6)), discardLogger())

	r := sim.Tick()

	assert.Equal(t, now, r.Time)
	assert.Equal(t, 1, c.Snapshot().TotalCount)
}
