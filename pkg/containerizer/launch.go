package containerizer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cuemby/containerizer/pkg/checkpoint"
	"github.com/cuemby/containerizer/pkg/engine"
	"github.com/cuemby/containerizer/pkg/executor"
	"github.com/cuemby/containerizer/pkg/log"
)

// startOutcome is what the mailbox-serialized entry check for a launch
// yields: either the container is newly owned, or the call must fail/no-op
// before any engine interaction happens.
type startOutcome struct {
	owned bool
	err   error
	image string
}

// enterLaunch decides whether a launch into id may proceed and, if so,
// creates the fresh terminationPromise. The already-started check runs
// before the image-recognition check: a second launch into an id this
// Manager already owns fails with ErrAlreadyStarted regardless of whether
// imageURI is one this Manager recognizes, and no record is created (and
// none mutated) for an id whose image is not recognized. Both checks and
// the resulting record creation run inside one dispatch-goroutine turn, so
// they are atomic with respect to every other operation.
func (m *Manager) enterLaunch(id ContainerID, imageURI string) startOutcome {
	return submit(m, func() startOutcome {
		if _, exists := m.records[id]; exists {
			return startOutcome{err: ErrAlreadyStarted}
		}
		image, mine := engine.ParseImageURI(imageURI)
		if !mine {
			return startOutcome{}
		}
		m.records[id] = &record{terminationPromise: newFuture[terminationResult]()}
		return startOutcome{owned: true, image: image}
	})
}

// LaunchExecutor launches the executor program itself as the container
// root, supervised directly through engine inspection and reaper
// registration rather than through a spawned local process.
func (m *Manager) LaunchExecutor(ctx context.Context, id ContainerID, info ExecutorInfo, directory, user, slavePID string, doCheckpoint bool) (bool, error) {
	outcome := m.enterLaunch(id, info.Command.ContainerImage)
	if outcome.err != nil {
		return false, outcome.err
	}
	if !outcome.owned {
		return false, nil
	}
	image := outcome.image

	name := containerName(m.prefix, id)
	env := composeEnv(info.Command.Environment, nil)
	logger := log.WithContainerID(string(id))
	logger.Info().Str("image", image).Str("name", name).Msg("launching executor container")

	runOpts := engine.RunOptions{
		Image:   image,
		Command: commandArgs(info.Command),
		Name:    name,
		Env:     env,
	}

	go func() {
		err := m.engine.Run(ctx, runOpts)
		m.post(func() {
			if err != nil {
				logger.Error().Err(err).Msg("engine run failed")
				m.failLaunch(id, "executor", fmt.Errorf("engine: run: %w", err))
				return
			}
			m.continueExecutorLaunch(ctx, id, info, name, doCheckpoint)
		})
	}()

	return true, nil
}

// continueExecutorLaunch inspects for the container's root pid, checkpoints
// it, and registers the reaper. Runs on the dispatch goroutine (called from
// a posted completion); the inspect call itself happens off-goroutine.
func (m *Manager) continueExecutorLaunch(ctx context.Context, id ContainerID, info ExecutorInfo, name string, doCheckpoint bool) {
	logger := log.WithContainerID(string(id))
	go func() {
		cont, err := m.engine.Inspect(ctx, name)
		m.post(func() {
			rec, owned := m.records[id]
			if !owned {
				return
			}
			if err != nil || cont.Pid == nil {
				logger.Error().Err(err).Msg("inspect failed after run")
				m.failLaunch(id, "executor", fmt.Errorf("engine: inspect: %w", err))
				return
			}
			pid := *cont.Pid

			if doCheckpoint {
				key := checkpoint.Key{
					SlaveID:     m.slaveID,
					FrameworkID: info.FrameworkID,
					ExecutorID:  info.ExecutorID,
					ContainerID: string(id),
				}
				if err := m.checkpoint.WritePID(key, pid); err != nil {
					logger.Error().Err(err).Msg("checkpoint write failed")
					m.failLaunch(id, "executor", fmt.Errorf("checkpoint: write: %w", err))
					return
				}
			}

			m.armReaper(id, rec, m.reaper.waitPID(pid))
			m.metrics.launches.WithLabelValues("executor", "ok").Inc()
		})
	}()
}

// LaunchTask spawns a local executor child, its lifecycle tied to the
// container via an --override wait-and-propagate command, while the engine
// container carries the task's own resource allocation.
func (m *Manager) LaunchTask(ctx context.Context, id ContainerID, task TaskInfo, info ExecutorInfo, directory, user, slavePID string, doCheckpoint bool) (bool, error) {
	outcome := m.enterLaunch(id, task.Command.ContainerImage)
	if outcome.err != nil {
		return false, outcome.err
	}
	if !outcome.owned {
		return false, nil
	}
	image := outcome.image

	submit(m, func() struct{} {
		if rec, ok := m.records[id]; ok {
			rec.resources = task.Resources
		}
		return struct{}{}
	})

	name := containerName(m.prefix, id)
	logger := log.WithContainerID(string(id))
	logger.Info().Str("image", image).Str("name", name).Msg("launching task container")

	runOpts := engine.RunOptions{
		Image:     image,
		Command:   commandArgs(task.Command),
		Name:      name,
		Resources: task.Resources.ToEngine(),
		Env:       composeEnv(info.Command.Environment, task.Command.Environment),
	}

	go func() {
		err := m.engine.Run(ctx, runOpts)
		m.post(func() {
			if err != nil {
				logger.Error().Err(err).Msg("engine run failed")
				m.failLaunch(id, "task", fmt.Errorf("engine: run: %w", err))
				return
			}
			m.continueTaskLaunch(ctx, id, task, info, directory, name, doCheckpoint)
		})
	}()

	return true, nil
}

// continueTaskLaunch spawns the local executor child under the scoped
// subprocess handshake. The spawn itself happens off the dispatch
// goroutine; the checkpoint/release/reaper-arm sequence runs back on it so
// each step observes a consistent record.
func (m *Manager) continueTaskLaunch(ctx context.Context, id ContainerID, task TaskInfo, info ExecutorInfo, directory, name string, doCheckpoint bool) {
	logger := log.WithContainerID(string(id))

	env := envSlice(composeEnv(info.Command.Environment, task.Command.Environment))
	overrideCmd := executor.ComposeOverride(commandArgs(info.Command), m.engineBin, name)

	go func() {
		handle, err := executor.Spawn(executor.Options{
			Command:    overrideCmd,
			Env:        env,
			Dir:        directory,
			StdoutPath: filepath.Join(directory, "stdout"),
			StderrPath: filepath.Join(directory, "stderr"),
		})
		m.post(func() {
			rec, owned := m.records[id]
			if !owned {
				if handle != nil {
					_ = handle.Abort()
				}
				return
			}
			if err != nil {
				logger.Error().Err(err).Msg("executor spawn failed")
				m.failLaunch(id, "task", fmt.Errorf("executor: spawn: %w", err))
				return
			}

			if doCheckpoint {
				key := checkpoint.Key{
					SlaveID:     m.slaveID,
					FrameworkID: info.FrameworkID,
					ExecutorID:  info.ExecutorID,
					ContainerID: string(id),
				}
				if err := m.checkpoint.WritePID(key, handle.Pid); err != nil {
					logger.Error().Err(err).Msg("checkpoint write failed, aborting handshake")
					_ = handle.Abort()
					m.failLaunch(id, "task", fmt.Errorf("checkpoint: write: %w", err))
					return
				}
			}

			if err := handle.Release(); err != nil {
				logger.Error().Err(err).Msg("handshake release failed")
				m.failLaunch(id, "task", fmt.Errorf("%w: %v", ErrSynchronizeFailed, err))
				return
			}

			m.armReaper(id, rec, m.reaper.waitChild(handle.Cmd))
			m.metrics.launches.WithLabelValues("task", "ok").Inc()
		})
	}()
}

// armReaper installs f as rec's exitStatus future and arranges for its
// settlement to invoke reaped on the dispatch goroutine.
func (m *Manager) armReaper(id ContainerID, rec *record, f *future[*int]) {
	rec.exitStatus = f
	f.onSettle(func(*int) {
		m.post(func() { m.reaped(id) })
	})
}

// failLaunch handles a launch-pipeline failure: it surfaces a failed future
// to the caller and fires best-effort cleanup of anything the engine may
// have partially created. It runs on the dispatch goroutine.
func (m *Manager) failLaunch(id ContainerID, kind string, cause error) {
	rec, owned := m.records[id]
	if !owned {
		return
	}

	name := containerName(m.prefix, id)
	go func() {
		// Best-effort cleanup of whatever the engine may have partially
		// created; not awaited, mirroring the orphan-cleanup kill in
		// recover.go.
		_ = m.engine.Kill(context.Background(), name, true)
	}()

	rec.terminationPromise.settle(terminationResult{err: fmt.Errorf("launch failed: %w", cause)})
	delete(m.records, id)
	m.metrics.launches.WithLabelValues(kind, "failed").Inc()
}
