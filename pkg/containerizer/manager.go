// Package containerizer implements a single-threaded actor that bridges a
// cluster agent's abstract Containerizer contract onto an external container
// engine while supervising a local executor child process.
package containerizer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuemby/containerizer/pkg/checkpoint"
	"github.com/cuemby/containerizer/pkg/engine"
	"github.com/cuemby/containerizer/pkg/usage"

	cgroupctl "github.com/cuemby/containerizer/pkg/cgroup"
	"github.com/cuemby/containerizer/pkg/log"
)

// mailboxSize bounds how many in-flight operations may queue on the
// Manager's dispatch channel before callers block. It is large enough to
// absorb a burst of reaper/engine completions without backpressure on the
// common path.
const mailboxSize = 256

// Manager owns all per-container state and serializes every state
// transition through a single dispatch goroutine: a cooperative,
// single-threaded actor. External asynchronous results (engine calls,
// subprocess spawns, reaper notifications, checkpoint writes, cgroup
// writes) are initiated without holding the Manager's goroutine, and their
// completions are posted back onto the same mailbox as closures, which is
// how they fold back into Manager state.
type Manager struct {
	ops  chan func()
	stop chan struct{}

	engine     engine.Client
	cgroups    cgroupctl.Controller
	checkpoint checkpoint.Store
	probe      usage.Probe
	reaper     *reaper

	prefix    string
	slaveID   string
	engineBin string

	records map[ContainerID]*record
	metrics *metricsSet
}

// Config wires the Manager's external collaborators plus the fixed,
// process-global engine-name prefix.
type Config struct {
	Engine     engine.Client
	Cgroups    cgroupctl.Controller
	Checkpoint checkpoint.Store
	Probe      usage.Probe

	// Prefix is prepended to every ContainerID to form the engine-visible
	// name. Running more than one agent against one engine requires giving
	// each agent a distinct prefix.
	Prefix string

	// SlaveID identifies this agent for checkpoint path derivation.
	SlaveID string

	// EngineBin is the engine CLI binary name used to compose the
	// executor's --override wait-and-propagate clause.
	EngineBin string
}

// New constructs a Manager and starts its dispatch loop. Callers must call
// Close when done to stop the loop.
func New(cfg Config) *Manager {
	m := &Manager{
		ops:        make(chan func(), mailboxSize),
		stop:       make(chan struct{}),
		engine:     cfg.Engine,
		cgroups:    cfg.Cgroups,
		checkpoint: cfg.Checkpoint,
		probe:      cfg.Probe,
		reaper:     newReaper(),
		prefix:     cfg.Prefix,
		slaveID:    cfg.SlaveID,
		engineBin:  cfg.EngineBin,
		records:    make(map[ContainerID]*record),
		metrics:    newMetricsSet(),
	}
	go m.run()
	return m
}

// Close stops the Manager's dispatch loop. In-flight operations already
// queued on the mailbox still run; nothing new may be submitted afterward.
func (m *Manager) Close() {
	close(m.stop)
}

func (m *Manager) run() {
	logger := log.WithComponent("containerizer")
	logger.Info().Msg("manager dispatch loop started")
	for {
		select {
		case op := <-m.ops:
			op()
		case <-m.stop:
			// Run whatever is already queued before exiting.
			for {
				select {
				case op := <-m.ops:
					op()
				default:
					logger.Info().Msg("manager dispatch loop stopped")
					return
				}
			}
		}
	}
}

// submit enqueues fn to run on the dispatch goroutine and blocks the caller
// until it has run, returning fn's result. This is the mechanism by which
// every exported Manager method achieves serialized ordering: each call
// becomes exactly one mailbox entry, processed in arrival order relative to
// every other call and every posted completion.
func submit[T any](m *Manager, fn func() T) T {
	reply := make(chan T, 1)
	m.ops <- func() { reply <- fn() }
	return <-reply
}

// post enqueues fn to run on the dispatch goroutine without waiting for it,
// used for completions arriving from other goroutines (engine calls,
// reaper, checkpoint writes) that need to fold into Manager state but have
// no caller to report back to.
func (m *Manager) post(fn func()) {
	select {
	case m.ops <- fn:
	case <-m.stop:
	}
}

// MetricsCollectors exposes the Manager's Prometheus collectors for
// registration against the daemon's own registry (see pkg/containerizer's
// per-instance metrics rationale in metrics.go).
func (m *Manager) MetricsCollectors() []prometheus.Collector {
	return m.metrics.Collectors()
}

// Containers returns the set of currently owned container ids.
func (m *Manager) Containers(ctx context.Context) []ContainerID {
	return submit(m, func() []ContainerID {
		ids := make([]ContainerID, 0, len(m.records))
		for id := range m.records {
			ids = append(ids, id)
		}
		return ids
	})
}
