//go:build linux

package usage

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// ProcProbe samples usage from /proc via github.com/prometheus/procfs.
type ProcProbe struct {
	fs procfs.FS
}

// NewProcProbe opens the default /proc mount.
func NewProcProbe() (*ProcProbe, error) {
	fs, err := procfs.NewFS("/proc")
	if err != nil {
		return nil, fmt.Errorf("usage: open /proc: %w", err)
	}
	return &ProcProbe{fs: fs}, nil
}

var _ Probe = (*ProcProbe)(nil)

// Sample implements Probe. The container's root process acts as init inside
// its pid namespace, so every descendant is reachable from the root pid:
// threads are already aggregated in each process's /proc/<pid>/stat, and
// the counters of every descendant process are summed in when
// includeChildren is set.
func (p *ProcProbe) Sample(pid int, includeChildren, includeThreads bool) (Statistics, error) {
	proc, err := p.fs.Proc(pid)
	if err != nil {
		return Statistics{}, fmt.Errorf("usage: process %d not running: %w", pid, err)
	}

	stat, err := proc.Stat()
	if err != nil {
		return Statistics{}, fmt.Errorf("usage: read stat for pid %d: %w", pid, err)
	}

	cpuSecs := stat.CPUTime()
	rss := int64(stat.ResidentMemory())

	if includeChildren {
		children, err := p.descendants(pid)
		if err == nil {
			for _, childPid := range children {
				childProc, err := p.fs.Proc(childPid)
				if err != nil {
					continue
				}
				childStat, err := childProc.Stat()
				if err != nil {
					continue
				}
				cpuSecs += childStat.CPUTime()
				rss += int64(childStat.ResidentMemory())
			}
		}
	}

	_ = includeThreads // accounted for via /proc/<pid>/stat's utime+stime which already aggregates threads.

	return Statistics{
		CPUTimeSecs: cpuSecs,
		MemRSSBytes: rss,
	}, nil
}

// descendants returns all pids in the process tree rooted at pid (excluding
// pid itself), by scanning every process's PPid.
func (p *ProcProbe) descendants(pid int) ([]int, error) {
	procs, err := p.fs.AllProcs()
	if err != nil {
		return nil, err
	}

	childrenOf := make(map[int][]int)
	for _, proc := range procs {
		stat, err := proc.Stat()
		if err != nil {
			continue
		}
		childrenOf[stat.PPID] = append(childrenOf[stat.PPID], proc.PID)
	}

	var out []int
	queue := []int{pid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range childrenOf[cur] {
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}
