package containerizer

import (
	"context"
	"sync"

	"github.com/cuemby/containerizer/pkg/cgroup"
	"github.com/cuemby/containerizer/pkg/checkpoint"
	"github.com/cuemby/containerizer/pkg/engine"
	"github.com/cuemby/containerizer/pkg/usage"
)

// fakeEngine is a scriptable engine.Client for exercising the launch,
// destroy, update, usage, and recovery pipelines without a real engine.
type fakeEngine struct {
	mu sync.Mutex

	runErr  error
	runFunc func(opts engine.RunOptions) error

	inspectFunc func(name string) (*engine.Container, error)

	killErr  error
	killFunc func(nameOrID string) error

	psResult []engine.Container
	psErr    error

	runCalls    []engine.RunOptions
	killCalls   []string
	inspectCall int
}

var _ engine.Client = (*fakeEngine)(nil)

func (f *fakeEngine) Run(ctx context.Context, opts engine.RunOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls = append(f.runCalls, opts)
	if f.runFunc != nil {
		return f.runFunc(opts)
	}
	return f.runErr
}

func (f *fakeEngine) Inspect(ctx context.Context, name string) (*engine.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inspectCall++
	if f.inspectFunc != nil {
		return f.inspectFunc(name)
	}
	return &engine.Container{Name: name}, nil
}

func (f *fakeEngine) Kill(ctx context.Context, nameOrID string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killCalls = append(f.killCalls, nameOrID)
	if f.killFunc != nil {
		return f.killFunc(nameOrID)
	}
	return f.killErr
}

func (f *fakeEngine) Ps(ctx context.Context, all bool, prefix string) ([]engine.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.psResult, f.psErr
}

func (f *fakeEngine) killCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.killCalls)
}

// fakeCheckpoint is a scriptable checkpoint.Store.
type fakeCheckpoint struct {
	mu       sync.Mutex
	writeErr error
	written  map[string]int
}

var _ checkpoint.Store = (*fakeCheckpoint)(nil)

func newFakeCheckpoint() *fakeCheckpoint {
	return &fakeCheckpoint{written: make(map[string]int)}
}

func (f *fakeCheckpoint) WritePID(key checkpoint.Key, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written[key.ContainerID] = pid
	return nil
}

// fakeCgroup is a scriptable cgroup.Controller.
type fakeCgroup struct {
	mu       sync.Mutex
	applyErr error
	calls    []cgroup.Resources
	pids     []int
}

var _ cgroup.Controller = (*fakeCgroup)(nil)

func (f *fakeCgroup) Apply(pid int, r cgroup.Resources) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pids = append(f.pids, pid)
	f.calls = append(f.calls, r)
	return f.applyErr
}

// fakeProbe is a scriptable usage.Probe.
type fakeProbe struct {
	mu    sync.Mutex
	stats usage.Statistics
	err   error
	calls int
}

var _ usage.Probe = (*fakeProbe)(nil)

func (f *fakeProbe) Sample(pid int, includeChildren, includeThreads bool) (usage.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.stats, f.err
}

// testManager wires a Manager to fakes and returns both for inspection.
type testManager struct {
	mgr        *Manager
	engine     *fakeEngine
	checkpoint *fakeCheckpoint
	cgroups    *fakeCgroup
	probe      *fakeProbe
}

func newTestManager() *testManager {
	tm := &testManager{
		engine:     &fakeEngine{},
		checkpoint: newFakeCheckpoint(),
		cgroups:    &fakeCgroup{},
		probe:      &fakeProbe{},
	}
	tm.mgr = New(Config{
		Engine:     tm.engine,
		Cgroups:    tm.cgroups,
		Checkpoint: tm.checkpoint,
		Probe:      tm.probe,
		Prefix:     "mesos-",
		SlaveID:    "slave-1",
		EngineBin:  "docker",
	})
	return tm
}
