//go:build !linux

package usage

import "fmt"

// ProcProbe is unavailable outside Linux: sampling is Linux-only, other
// platforms fail.
type ProcProbe struct{}

// NewProcProbe always fails on non-Linux platforms.
func NewProcProbe() (*ProcProbe, error) {
	return nil, fmt.Errorf("usage: proc probe requires linux")
}

var _ Probe = (*ProcProbe)(nil)

// Sample implements Probe.
func (p *ProcProbe) Sample(pid int, includeChildren, includeThreads bool) (Statistics, error) {
	return Statistics{}, ErrUnsupported
}
