package containerizer

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/containerizer/pkg/log"
)

// Update stores the new resource allocation and applies it to the
// container's cgroup. On non-Linux platforms the wired cgroup.Controller is
// a no-op (see pkg/cgroup), so this method does not itself branch on GOOS;
// it always stores the new allocation and always attempts apply-limits,
// trusting the Controller to do nothing where it cannot.
func (m *Manager) Update(ctx context.Context, id ContainerID, r Resources) error {
	logger := log.WithContainerID(string(id))

	entry := submit(m, func() lookup[string] {
		rec, owned := m.records[id]
		if !owned {
			return lookup[string]{err: ErrNotOwned}
		}
		rec.resources = r
		return lookup[string]{value: containerName(m.prefix, id)}
	})
	if entry.err != nil {
		logger.Info().Msg("update: not owned, no-op")
		return nil
	}

	if !r.HasCPUs && !r.HasMem {
		return nil
	}

	cont, err := m.engine.Inspect(ctx, entry.value)
	if err != nil {
		return fmt.Errorf("engine: inspect: %w", err)
	}
	if cont.Pid == nil {
		// A container with no pid yet (or no longer) makes update a no-op
		// returning success.
		return nil
	}

	start := time.Now()
	err = m.cgroups.Apply(*cont.Pid, r.ToCgroup())
	m.metrics.updateLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("cgroup: apply: %w", err)
	}
	return nil
}
