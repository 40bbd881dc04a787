// Package usage samples resource-usage counters for a container's root
// process.
package usage

import "errors"

// ErrUnsupported is returned by Sample on platforms with no probe
// implementation: sampling is Linux-only, other platforms fail.
var ErrUnsupported = errors.New("usage: unsupported platform")

// Statistics is the subset of resource counters the core annotates and
// returns from the usage pipeline.
type Statistics struct {
	CPUTimeSecs    float64
	MemRSSBytes    int64
	Timestamp      int64

	// Annotated by the containerizer core from the container's last-known
	// resource allocation; zero means "no limit known".
	MemLimitBytes int64
	CPUsLimit     float64
}

// Probe samples usage for a given root pid. includeChildren/includeThreads
// are part of the signature but, since the container's root process acts
// as init inside its pid namespace and no children escape that namespace,
// a Linux implementation need only walk /proc/<pid>/task and the root's own
// descendants.
type Probe interface {
	Sample(pid int, includeChildren, includeThreads bool) (Statistics, error)
}
