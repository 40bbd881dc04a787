package containerizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/containerizer/pkg/usage"
)

// usageInfo is the snapshot Usage needs from the record, taken under the
// mailbox so it is consistent with whatever the last Update saw.
type usageInfo struct {
	name       string
	resources  Resources
	destroying bool
}

// Usage samples the container's resource usage via the probe, annotating
// the result with its last-known resource limits.
func (m *Manager) Usage(ctx context.Context, id ContainerID) (usage.Statistics, error) {
	entry := submit(m, func() lookup[usageInfo] {
		rec, owned := m.records[id]
		if !owned {
			return lookup[usageInfo]{err: ErrNotOwned}
		}
		return lookup[usageInfo]{value: usageInfo{
			name:       containerName(m.prefix, id),
			resources:  rec.resources,
			destroying: rec.destroying,
		}}
	})
	if entry.err != nil {
		return usage.Statistics{}, entry.err
	}
	if entry.value.destroying {
		return usage.Statistics{}, ErrBeingDestroyed
	}

	cont, err := m.engine.Inspect(ctx, entry.value.name)
	if err != nil {
		return usage.Statistics{}, fmt.Errorf("engine: inspect: %w", err)
	}
	if cont.Pid == nil {
		return usage.Statistics{}, fmt.Errorf("containerizer: usage: not running")
	}

	start := time.Now()
	stats, err := m.probe.Sample(*cont.Pid, true, true)
	m.metrics.usageLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, usage.ErrUnsupported) {
			return usage.Statistics{}, ErrUnsupportedPlatform
		}
		return usage.Statistics{}, fmt.Errorf("usage: sample: %w", err)
	}

	r := entry.value.resources
	if r.HasMem {
		stats.MemLimitBytes = r.MemB
	}
	if r.HasCPUs {
		stats.CPUsLimit = r.CPUs
	}
	return stats, nil
}
