package containerizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/containerizer/pkg/engine"
	"github.com/cuemby/containerizer/pkg/usage"
)

func TestUsageNotOwned(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	_, err := tm.mgr.Usage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestUsageWhileDestroyingFails(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	submit(tm.mgr, func() struct{} {
		tm.mgr.records["c1"] = &record{
			terminationPromise: newFuture[terminationResult](),
			destroying:         true,
		}
		return struct{}{}
	})

	_, err := tm.mgr.Usage(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrBeingDestroyed)
}

func TestUsageNotRunningFails(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.engine.inspectFunc = func(name string) (*engine.Container, error) {
		return &engine.Container{Name: name}, nil
	}

	tm.launchOwnedContainer("c1", Resources{})
	_, err := tm.mgr.Usage(context.Background(), "c1")
	require.Error(t, err)
}

func TestUsageAnnotatesWithResourceLimits(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	pid := 999
	tm.engine.inspectFunc = func(name string) (*engine.Container, error) {
		return &engine.Container{Name: name, Pid: &pid}, nil
	}
	tm.probe.stats = usage.Statistics{CPUTimeSecs: 1.5, MemRSSBytes: 1024}

	tm.launchOwnedContainer("c1", Resources{CPUs: 2.0, MemB: 512 << 20, HasCPUs: true, HasMem: true})

	stats, err := tm.mgr.Usage(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, stats.CPUTimeSecs)
	assert.Equal(t, int64(1024), stats.MemRSSBytes)
	assert.Equal(t, int64(512<<20), stats.MemLimitBytes)
	assert.Equal(t, 2.0, stats.CPUsLimit)
}

func TestUsageUnsupportedPlatformMapsToSentinel(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	pid := 999
	tm.engine.inspectFunc = func(name string) (*engine.Container, error) {
		return &engine.Container{Name: name, Pid: &pid}, nil
	}
	tm.probe.err = usage.ErrUnsupported

	tm.launchOwnedContainer("c1", Resources{})
	_, err := tm.mgr.Usage(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
