package containerizer

import (
	"os/exec"
	"time"
)

// reaperPollInterval is how often a non-child pid is polled for liveness.
// The kernel child-exit signal is only available for true children of this
// process; pids adopted across a crash (recovery) or owned by the engine
// (executor-launch's container root) are not our children, so they are
// reaped by polling for liveness instead (processAlive: the null signal on
// unix). Either path ends in the
// same one-shot optional-exit-code completion.
const reaperPollInterval = 500 * time.Millisecond

// reaper reaps process exits. Given a pid (or an already-spawned child),
// it returns a one-shot future of the wait-status, settling with nil when
// no exit code is obtainable (the non-child, polled path).
type reaper struct {
	pollInterval time.Duration
}

func newReaper() *reaper {
	return &reaper{pollInterval: reaperPollInterval}
}

// waitChild reaps a process this Manager itself forked (task-launch's
// executor). cmd must already have been Start()ed.
func (r *reaper) waitChild(cmd *exec.Cmd) *future[*int] {
	f := newFuture[*int]()
	go func() {
		_ = cmd.Wait()
		var code *int
		if cmd.ProcessState != nil {
			c := cmd.ProcessState.ExitCode()
			code = &c
		}
		f.settle(code)
	}()
	return f
}

// waitPID reaps a pid this Manager did not fork itself: the container root
// pid reported by engine Inspect (executor-launch), or a pid re-adopted
// across an agent restart (recovery). No exit status is obtainable for a
// non-child pid, so the future always settles with nil.
func (r *reaper) waitPID(pid int) *future[*int] {
	f := newFuture[*int]()
	go func() {
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		for range ticker.C {
			if !processAlive(pid) {
				f.settle(nil)
				return
			}
		}
	}()
	return f
}
