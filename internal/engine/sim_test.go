package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSimulation(t *testing.T, seed int64) *Simulation {
	t.Helper()
	tn := baseTuning()
	tn.TickInterval = time.Millisecond // keep timed tests fast
	tn.HistorySize = 100
	p, err := tn.Derive()
	require.NoError(t, err)
	return NewSimulation(p, NewSource(seed))
}

func TestSimulationStepUpdatesState(t *testing.T) {
	sim := testSimulation(t, 1)

	before := sim.Snapshot()
	assert.Equal(t, BoostWaiting, before.Sample.BoostStatus, "no sample before the first tick")
	assert.Equal(t, 0, before.Ticks)

	sample := sim.Step()
	snap := sim.Snapshot()
	assert.Equal(t, sample, snap.Sample)
	assert.Equal(t, 1, snap.Ticks)
	assert.Len(t, snap.History, 1)
	assert.InDelta(t, sim.Params().TickInterval.Seconds(), snap.Elapsed, 1e-9)
}

func TestSimulationDeterministicSequence(t *testing.T) {
	a := testSimulation(t, 77)
	b := testSimulation(t, 77)

	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.Step(), b.Step())
	}
	assert.Equal(t, a.Snapshot().Peaks, b.Snapshot().Peaks)
}

func TestSimulationRunStopsOnCancel(t *testing.T) {
	sim := testSimulation(t, 3)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sim.Run(ctx, 0)
		close(done)
	}()

	// Let the producer take a few ticks, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop after cancellation")
	}
	assert.False(t, sim.Running())
	assert.Greater(t, sim.TickCount(), 0)
}

func TestSimulationRunStopsAfterDuration(t *testing.T) {
	sim := testSimulation(t, 4)

	done := make(chan struct{})
	go func() {
		sim.Run(context.Background(), 30*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop after its duration")
	}
	assert.False(t, sim.Running())
}

func TestSimulationConcurrentSnapshots(t *testing.T) {
	sim := testSimulation(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sim.Run(ctx, 0)

	// Consumers polling while the producer writes; the race detector flags
	// any unguarded access, and no snapshot may be torn.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := sim.Snapshot()
				assert.LessOrEqual(t, len(snap.History), 100)
				assert.GreaterOrEqual(t, snap.Sample.EstimatedHP, 0.0)
			}
		}()
	}
	wg.Wait()
}

func TestSimulationResetPeaks(t *testing.T) {
	sim := testSimulation(t, 6)
	for i := 0; i < 2000; i++ {
		sim.Step()
	}
	require.Greater(t, sim.Snapshot().Peaks.MaxHP, 0.0)

	sim.ResetPeaks()
	snap := sim.Snapshot()
	assert.Equal(t, 0.0, snap.Peaks.MaxHP)
	assert.Equal(t, sim.Params().BoostActivePSI, snap.Peaks.MaxBoostPSI)
	assert.NotEmpty(t, snap.History, "history survives a peak reset")
}
