package containerizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// launchOwnedContainer directly installs a fully-owned record, bypassing
// the launch pipeline, so destroy/wait/update/usage tests can focus on
// their own pipeline in isolation.
func (tm *testManager) launchOwnedContainer(id ContainerID, res Resources) {
	submit(tm.mgr, func() struct{} {
		tm.mgr.records[id] = &record{
			terminationPromise: newFuture[terminationResult](),
			resources:          res,
		}
		return struct{}{}
	})
}

func TestDestroyNotOwnedIsNoop(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.mgr.Destroy(context.Background(), "missing", true)
	assert.Empty(t, tm.engine.killCalls)
}

func TestDestroyHappyPathKilled(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.launchOwnedContainer("c1", Resources{})
	tm.mgr.Destroy(context.Background(), "c1", true)

	term, err := tm.mgr.Wait(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, term.Killed)
	assert.Equal(t, "Docker task killed", term.Message)
	assert.Nil(t, term.Status)

	require.Eventually(t, func() bool {
		for _, id := range tm.mgr.Containers(context.Background()) {
			if id == ContainerID("c1") {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestDestroyIsIdempotent(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.launchOwnedContainer("c1", Resources{})
	tm.mgr.Destroy(context.Background(), "c1", true)
	tm.mgr.Destroy(context.Background(), "c1", true)

	_, err := tm.mgr.Wait(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, tm.engine.killCallCount())
}

func TestDestroyKillFailureFailsPromiseAndClearsDestroying(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	tm.engine.killErr = assert.AnError
	tm.launchOwnedContainer("c1", Resources{})
	tm.mgr.Destroy(context.Background(), "c1", true)

	_, err := tm.mgr.Wait(context.Background(), "c1")
	require.Error(t, err)

	// destroying flag must be cleared so a retry is possible.
	require.Eventually(t, func() bool {
		owned := submit(tm.mgr, func() bool {
			rec, ok := tm.mgr.records["c1"]
			return ok && !rec.destroying
		})
		return owned
	}, time.Second, 5*time.Millisecond)
}

func TestDestroyWithPendingExitStatusWaitsForReaper(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	exitFuture := newFuture[*int]()
	submit(tm.mgr, func() struct{} {
		tm.mgr.records["c1"] = &record{
			terminationPromise: newFuture[terminationResult](),
			exitStatus:         exitFuture,
		}
		return struct{}{}
	})

	tm.mgr.Destroy(context.Background(), "c1", false)

	// Kill completes quickly; the termination promise must still not
	// resolve until exitStatus settles.
	select {
	case <-time.After(50 * time.Millisecond):
	}

	code := 137
	exitFuture.settle(&code)

	term, err := tm.mgr.Wait(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, term.Status)
	assert.Equal(t, 137, *term.Status)
	assert.False(t, term.Killed)
	assert.Equal(t, "Docker process terminated", term.Message)
}

func TestReapedTriggersDestroyOnlyWhenOwned(t *testing.T) {
	tm := newTestManager()
	defer tm.mgr.Close()

	// reaped on an unknown id must be a silent no-op.
	submit(tm.mgr, func() struct{} {
		tm.mgr.reaped("ghost")
		return struct{}{}
	})
	assert.Empty(t, tm.engine.killCalls)

	tm.launchOwnedContainer("c1", Resources{})
	submit(tm.mgr, func() struct{} {
		tm.mgr.reaped("c1")
		return struct{}{}
	})

	term, err := tm.mgr.Wait(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, term.Killed)
}
