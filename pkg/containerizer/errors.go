package containerizer

import "errors"

// Sentinel error kinds the Manager returns. Engine/checkpoint/cgroup
// failures are wrapped with fmt.Errorf("...: %w", err) at the call site
// rather than given their own sentinels, since their cause varies; callers
// can still recognize them by the "engine:", "checkpoint:" or "cgroup:" tag
// in the message (a launch failure reported through Wait carries a leading
// "launch failed: " before it) or by unwrapping to the underlying
// collaborator error.
var (
	// ErrAlreadyStarted is returned by launch into an id the Manager
	// already owns.
	ErrAlreadyStarted = errors.New("containerizer: already started")

	// ErrNotOwned is returned by wait/usage on an unknown id.
	ErrNotOwned = errors.New("containerizer: not owned")

	// ErrBeingDestroyed is returned by usage while a destroy is in flight.
	ErrBeingDestroyed = errors.New("containerizer: being destroyed")

	// ErrDuplicatePID is returned by Recover when two distinct container
	// ids in the snapshot share a forked pid.
	ErrDuplicatePID = errors.New("containerizer: duplicate pid at recovery")

	// ErrUnsupportedPlatform is returned by Usage on non-Linux platforms.
	ErrUnsupportedPlatform = errors.New("containerizer: unsupported platform")

	// ErrSynchronizeFailed is returned when the task-launch handshake byte
	// could not be written to the executor child's stdin.
	ErrSynchronizeFailed = errors.New("containerizer: synchronize failed")
)
