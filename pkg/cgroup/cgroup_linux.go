//go:build linux

package cgroup

import (
	"fmt"

	"github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cuemby/containerizer/pkg/log"
)

// V1Controller is a Controller backed by github.com/containerd/cgroups
// against a cgroups v1 hierarchy, loaded per-pid.
type V1Controller struct{}

// NewController returns the Linux cgroups-v1 Controller.
func NewController() Controller {
	return &V1Controller{}
}

var _ Controller = (*V1Controller)(nil)

// Apply implements Controller.
func (c *V1Controller) Apply(pid int, r Resources) error {
	logger := log.WithComponent("cgroup")

	group, err := cgroups.Load(cgroups.V1, cgroups.PidPath(pid))
	if err != nil {
		// Missing hierarchies, missing cgroups, or missing resource fields
		// are silently tolerated.
		logger.Warn().Err(err).Int("pid", pid).Msg("cgroup not found for pid, skipping limit update")
		return nil
	}

	spec := &specs.LinuxResources{}

	if r.HasCPUs {
		shares := cpuShares(r.CPUs)
		spec.CPU = &specs.LinuxCPU{Shares: &shares}
	}

	if r.HasMem {
		limit := memoryLimit(r.MemB)
		// Always write the soft limit; write the hard limit only if it
		// would increase (monotonic, never shrinks synchronously).
		reservation := limit
		spec.Memory = &specs.LinuxMemory{Reservation: &reservation}

		current, currErr := currentMemoryLimit(group)
		if currErr != nil {
			logger.Warn().Err(currErr).Int("pid", pid).Msg("could not read current memory limit, leaving hard limit unchanged")
		} else if limit > current {
			spec.Memory.Limit = &limit
		}
	}

	if err := group.Update(spec); err != nil {
		return fmt.Errorf("cgroup update: %w", err)
	}
	return nil
}

func currentMemoryLimit(group cgroups.Cgroup) (int64, error) {
	stats, err := group.Stat()
	if err != nil {
		return 0, err
	}
	if stats.Memory == nil || stats.Memory.Usage == nil {
		return 0, fmt.Errorf("cgroup: no memory stats available")
	}
	return int64(stats.Memory.Usage.Limit), nil
}
