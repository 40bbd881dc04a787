package containerizer

import (
	"context"

	"github.com/cuemby/containerizer/pkg/log"
)

// RunState is a single checkpointed run of an executor.
type RunState struct {
	ID        string
	ForkedPid *int
	Completed bool
}

// ExecutorState is the persisted view of one executor across its runs.
type ExecutorState struct {
	// Info is nil when the snapshot carries no executor metadata for this
	// slot, which phase 1 treats as "skip".
	Info   *ExecutorInfo
	Latest string
	Runs   map[string]RunState
}

// FrameworkState groups executors under their owning framework.
type FrameworkState struct {
	Executors map[string]ExecutorState
}

// Snapshot is the agent-persisted run state Recover reconciles against the
// engine.
type Snapshot struct {
	Frameworks map[string]FrameworkState
}

type adoptee struct {
	id  ContainerID
	pid int
}

// Recover adopts live work from snapshot and reconciles against the
// engine's own view of running containers. Called once at startup, before
// any other operation is expected to arrive.
func (m *Manager) Recover(ctx context.Context, snapshot *Snapshot) error {
	logger := log.WithComponent("containerizer")

	adopted, err := adoptFromSnapshot(snapshot)
	if err != nil {
		return err
	}

	owned := submit(m, func() []ContainerID {
		ids := make([]ContainerID, 0, len(adopted))
		for _, a := range adopted {
			if _, exists := m.records[a.id]; exists {
				continue
			}
			rec := &record{terminationPromise: newFuture[terminationResult]()}
			m.records[a.id] = rec
			m.armReaper(a.id, rec, m.reaper.waitPID(a.pid))
			ids = append(ids, a.id)
		}
		return ids
	})
	logger.Info().Int("adopted", len(owned)).Msg("recovery phase 1 complete")

	return m.reconcileWithEngine(ctx, owned)
}

// adoptFromSnapshot is recovery phase 1: it walks the persisted snapshot
// and returns the set of (id, pid) pairs to re-supervise.
func adoptFromSnapshot(snapshot *Snapshot) ([]adoptee, error) {
	if snapshot == nil {
		return nil, nil
	}

	seen := make(map[int]ContainerID)
	var out []adoptee

	for _, fw := range snapshot.Frameworks {
		for _, ex := range fw.Executors {
			if ex.Info == nil || ex.Latest == "" {
				continue
			}
			run, ok := ex.Runs[ex.Latest]
			if !ok || run.ForkedPid == nil || run.Completed {
				continue
			}
			if run.ID != ex.Latest {
				// The latest run's own id must match the executor's recorded
				// latest container id.
				continue
			}

			id := ContainerID(run.ID)
			pid := *run.ForkedPid

			if other, dup := seen[pid]; dup && other != id {
				return nil, ErrDuplicatePID
			}
			seen[pid] = id
			out = append(out, adoptee{id: id, pid: pid})
		}
	}

	return out, nil
}

// reconcileWithEngine is recovery phase 2: every engine-visible container
// under our prefix that we did not just adopt is an orphan and gets killed,
// best-effort.
func (m *Manager) reconcileWithEngine(ctx context.Context, owned []ContainerID) error {
	logger := log.WithComponent("containerizer")

	ownedSet := make(map[ContainerID]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	containers, err := m.engine.Ps(ctx, true, m.prefix)
	if err != nil {
		return err
	}

	for _, c := range containers {
		id, ok := parseContainerName(m.prefix, c.Name)
		if !ok {
			// Foreign tenant: a name under a different prefix, or one that
			// doesn't decode at all. Recovery never kills these.
			continue
		}
		if _, isOwned := ownedSet[id]; isOwned {
			continue
		}

		nameOrID := c.Name
		go func(id ContainerID, nameOrID string) {
			// TODO: a kill failure here is dropped; a bounded-retry queue
			// would let a transient engine error get cleaned up on the next
			// recovery pass instead of leaking the orphan indefinitely.
			if err := m.engine.Kill(ctx, nameOrID, true); err != nil {
				logger.Warn().Str("container_id", string(id)).Err(err).Msg("orphan cleanup kill failed")
				return
			}
			m.post(func() { m.metrics.orphansKilled.Inc() })
		}(id, nameOrID)
	}

	return nil
}
