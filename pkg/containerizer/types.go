package containerizer

import (
	"context"
	"sync"

	"github.com/cuemby/containerizer/pkg/cgroup"
	"github.com/cuemby/containerizer/pkg/engine"
)

// ContainerID is the caller-assigned opaque key for all per-container state.
type ContainerID string

// Resources is the last-known resource allocation for a container: the
// source of truth update reads and usage annotates samples with.
type Resources struct {
	CPUs    float64
	MemB    int64
	HasCPUs bool
	HasMem  bool
}

// ToEngine converts to the subset engine.RunOptions needs.
func (r Resources) ToEngine() engine.Resources {
	return engine.Resources{CPUs: r.CPUs, MemB: r.MemB}
}

// ToCgroup converts to the subset cgroup.Controller.Apply needs.
func (r Resources) ToCgroup() cgroup.Resources {
	return cgroup.Resources{CPUs: r.CPUs, MemB: r.MemB, HasCPUs: r.HasCPUs, HasMem: r.HasMem}
}

// Termination is the final observable outcome of a container.
type Termination struct {
	// Killed is true if teardown was requested externally or due to
	// explicit kill; false if initiated by child reaping.
	Killed bool

	// Status is the supervised child's exit code, when known.
	Status *int

	// Message is a human-readable cause ("killed" vs "terminated").
	Message string
}

// terminationResult is what the termination promise settles with: either a
// Termination value, or the descriptive failure destroy.go produces when the
// engine kill itself could not be confirmed.
type terminationResult struct {
	term Termination
	err  error
}

// record is the sparse per-container state tracked by the Manager. Not
// every field is populated in every state; exitStatus in particular may
// remain nil if launch failed before reaper registration.
type record struct {
	terminationPromise *future[terminationResult]

	// exitStatus carries the supervised child's wait-status once reaped.
	// nil means "never registered a reaper for this container" (launch
	// failed before that point); a non-nil, unsettled future means a
	// reaper is armed; a settled future with a nil *int means "no status
	// available", the synthetic completion destroy.go inserts when no
	// reaper was ever registered.
	exitStatus *future[*int]

	resources  Resources
	destroying bool
}

// future is a single-assignment value that may be settled exactly once and
// waited on by any number of goroutines; it backs both terminationPromise
// and exitStatus without committing to a specific actor framework.
type future[T any] struct {
	mu      sync.Mutex
	settled bool
	value   T
	waiters []chan T
}

func newFuture[T any]() *future[T] {
	return &future[T]{}
}

// settledFuture returns a future that is already settled with v, used for
// the synthetic "no status" completion destroy.go installs when a container
// never got far enough to register a reaper.
func settledFuture[T any](v T) *future[T] {
	f := newFuture[T]()
	f.settle(v)
	return f
}

// settle fulfills the future with v. Only the first call has any effect;
// a future resolves at most once.
func (f *future[T]) settle(v T) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()

	for _, w := range waiters {
		w <- v
		close(w)
	}
}

// get returns the settled value, if any, without blocking.
func (f *future[T]) get() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.settled
}

// onSettle invokes cb with the eventual value, synchronously if already
// settled, or from a dedicated goroutine once settle is called otherwise.
func (f *future[T]) onSettle(cb func(T)) {
	f.mu.Lock()
	if f.settled {
		v := f.value
		f.mu.Unlock()
		cb(v)
		return
	}
	ch := make(chan T, 1)
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()

	go func() {
		cb(<-ch)
	}()
}

// wait blocks until the future settles or ctx is done.
func (f *future[T]) wait(ctx context.Context) (T, error) {
	f.mu.Lock()
	if f.settled {
		v := f.value
		f.mu.Unlock()
		return v, nil
	}
	ch := make(chan T, 1)
	f.waiters = append(f.waiters, ch)
	f.mu.Unlock()

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
