package containerizer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/containerizer/pkg/engine"
)

func runningPid(p int) *int { return &p }

func TestRecoverEmptySnapshotNoAdoption(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	err := tm.mgr.Recover(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tm.mgr.Containers(context.Background()))
}

func TestRecoverAdoptsLiveRun(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	pid := os.Getpid()
	snap := &Snapshot{
		Frameworks: map[string]FrameworkState{
			"fw1": {
				Executors: map[string]ExecutorState{
					"ex1": {
						Info:   &ExecutorInfo{ExecutorID: "ex1", FrameworkID: "fw1"},
						Latest: "c1",
						Runs: map[string]RunState{
							"c1": {ID: "c1", ForkedPid: runningPid(pid)},
						},
					},
				},
			},
		},
	}

	err := tm.mgr.Recover(context.Background(), snap)
	require.NoError(t, err)

	ids := tm.mgr.Containers(context.Background())
	assert.Contains(t, ids, ContainerID("c1"))
}

func TestRecoverSkipsCompletedRuns(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	snap := &Snapshot{
		Frameworks: map[string]FrameworkState{
			"fw1": {
				Executors: map[string]ExecutorState{
					"ex1": {
						Info:   &ExecutorInfo{ExecutorID: "ex1", FrameworkID: "fw1"},
						Latest: "c1",
						Runs: map[string]RunState{
							"c1": {ID: "c1", ForkedPid: runningPid(1), Completed: true},
						},
					},
				},
			},
		},
	}

	err := tm.mgr.Recover(context.Background(), snap)
	require.NoError(t, err)
	assert.Empty(t, tm.mgr.Containers(context.Background()))
}

func TestRecoverDuplicatePidFails(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	snap := &Snapshot{
		Frameworks: map[string]FrameworkState{
			"fw1": {
				Executors: map[string]ExecutorState{
					"ex1": {
						Info:   &ExecutorInfo{ExecutorID: "ex1", FrameworkID: "fw1"},
						Latest: "c1",
						Runs: map[string]RunState{
							"c1": {ID: "c1", ForkedPid: runningPid(1234)},
						},
					},
					"ex2": {
						Info:   &ExecutorInfo{ExecutorID: "ex2", FrameworkID: "fw1"},
						Latest: "c2",
						Runs: map[string]RunState{
							"c2": {ID: "c2", ForkedPid: runningPid(1234)},
						},
					},
				},
			},
		},
	}

	err := tm.mgr.Recover(context.Background(), snap)
	assert.ErrorIs(t, err, ErrDuplicatePID)
}

func TestRecoverKillsOrphansNotInSnapshot(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.engine.psResult = []engine.Container{
		{ID: "abc", Name: "mesos-c9"},
		{ID: "def", Name: "other-c1"},
	}

	err := tm.mgr.Recover(context.Background(), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tm.engine.killCallCount() == 1
	}, time.Second, 5*time.Millisecond)

	tm.engine.mu.Lock()
	defer tm.engine.mu.Unlock()
	assert.Equal(t, []string{"mesos-c9"}, tm.engine.killCalls)
}

func TestRecoverIsIdempotentAcrossRuns(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.engine.psResult = []engine.Container{
		{ID: "abc", Name: "mesos-c9"},
	}

	require.NoError(t, tm.mgr.Recover(context.Background(), nil))
	require.Eventually(t, func() bool {
		return tm.engine.killCallCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, tm.mgr.Recover(context.Background(), nil))
	require.Eventually(t, func() bool {
		return tm.engine.killCallCount() == 2
	}, time.Second, 5*time.Millisecond)
}
