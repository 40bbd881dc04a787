// Package engine defines the contract the containerizer core uses to talk to
// an external container engine, and ships one concrete implementation that
// drives that engine's CLI out-of-process.
//
// The core never imports a specific engine's SDK; it only depends on
// Client, treating the engine as an external collaborator addressed
// through run/inspect/kill/ps.
package engine

import (
	"context"
)

// Resources carries the resource intent passed to Run. Either field may be
// the zero value, meaning "unspecified".
type Resources struct {
	CPUs float64
	MemB int64
}

// RunOptions describes a container to start.
type RunOptions struct {
	Image     string
	Command   []string
	Name      string
	Resources Resources
	Env       map[string]string
}

// Container is the subset of engine-reported container state the
// containerizer core consumes.
type Container struct {
	Name string
	ID   string
	// Pid is the container's root process id as seen from the host pid
	// namespace. Nil if the container is not currently running.
	Pid *int
}

// Client is the engine capability set the Manager consumes: run, inspect,
// kill, list. All calls are expected to be safe to run concurrently with
// each other; the Manager never assumes engine-side serialization.
type Client interface {
	// Run starts a container. Returns once the engine accepts the request;
	// it does not wait for the container to reach a running state.
	Run(ctx context.Context, opts RunOptions) error

	// Inspect returns the current state of a named container, including its
	// root pid if running. Returns an error if the container is unknown to
	// the engine.
	Inspect(ctx context.Context, name string) (*Container, error)

	// Kill forcibly removes a container, equivalent to `rm -f`. A Kill of an
	// already-gone container is not an error: success means "the container
	// no longer exists" either way.
	Kill(ctx context.Context, nameOrID string, force bool) error

	// Ps enumerates engine-visible containers whose name matches prefix.
	Ps(ctx context.Context, all bool, prefix string) ([]Container, error)
}
