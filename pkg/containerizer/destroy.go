package containerizer

import (
	"context"
	"fmt"

	"github.com/cuemby/containerizer/pkg/log"
)

// Destroy idempotently tears down an owned container. killed distinguishes
// an externally requested kill from reaper-initiated or
// launch-failure-initiated teardown.
func (m *Manager) Destroy(ctx context.Context, id ContainerID, killed bool) {
	submit(m, func() struct{} {
		m.destroyEntry(ctx, id, killed)
		return struct{}{}
	})
}

// destroyEntry is the mailbox-serialized entry point shared by the public
// Destroy and internal callers (reaped, failLaunch) that already run on the
// dispatch goroutine; those must call it directly rather than through
// Destroy/submit, which would deadlock against the very goroutine they are
// running on.
func (m *Manager) destroyEntry(ctx context.Context, id ContainerID, killed bool) {
	logger := log.WithContainerID(string(id))
	rec, owned := m.records[id]
	if !owned {
		logger.Info().Msg("destroy: not owned")
		return
	}
	if rec.destroying {
		return
	}
	rec.destroying = true

	name := containerName(m.prefix, id)
	logger.Info().Bool("killed", killed).Msg("destroying container")

	go func() {
		err := m.engine.Kill(ctx, name, true)
		m.post(func() { m.destroyAfterKill(id, killed, err) })
	}()
}

// destroyAfterKill runs once the kill call returns, settling the promise
// on failure or arranging to finish once the reaper confirms the exit.
func (m *Manager) destroyAfterKill(id ContainerID, killed bool, killErr error) {
	rec, owned := m.records[id]
	if !owned {
		return
	}

	if killErr != nil {
		rec.terminationPromise.settle(terminationResult{err: fmt.Errorf("engine: kill: %w", killErr)})
		rec.destroying = false
		return
	}

	if rec.exitStatus == nil {
		// No reaper was ever registered (launch failed before that point);
		// substitute a synthetic "no status" completion so the final stage
		// stays uniform.
		rec.exitStatus = settledFuture[*int](nil)
	}

	rec.exitStatus.onSettle(func(status *int) {
		m.post(func() { m.destroyFinal(id, killed, status) })
	})
}

// destroyFinal publishes the Termination once the reaper has confirmed
// the process exit (or the synthetic no-status completion settles).
func (m *Manager) destroyFinal(id ContainerID, killed bool, status *int) {
	rec, owned := m.records[id]
	if !owned {
		return
	}

	message := "Docker process terminated"
	cause := "terminated"
	if killed {
		message = "Docker task killed"
		cause = "killed"
	}

	term := Termination{Killed: killed, Status: status, Message: message}
	rec.terminationPromise.settle(terminationResult{term: term})

	delete(m.records, id)
	m.metrics.destroys.WithLabelValues(cause).Inc()

	destroyLog := log.WithContainerID(string(id))
	destroyLog.Info().Bool("killed", killed).Msg("container destroyed")
}

// reaped is invoked when the kernel (or the polled liveness check, for
// non-child pids) reports the supervised process's exit. Must run on the
// dispatch goroutine.
func (m *Manager) reaped(id ContainerID) {
	if _, owned := m.records[id]; !owned {
		return
	}
	reapedLog := log.WithContainerID(string(id))
	reapedLog.Info().Msg("supervised process reaped")
	m.destroyEntry(context.Background(), id, false)
}
