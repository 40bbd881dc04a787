package containerizer

import (
	"context"
)

// lookup is the small struct submit returns for calls that need either a
// value or a not-owned error, since submit is constrained to a single
// generic return type.
type lookup[T any] struct {
	value T
	err   error
}

// Wait returns the container's eventual Termination, or ErrNotOwned if id
// is unknown. Blocks until destroy completes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id ContainerID) (Termination, error) {
	l := submit(m, func() lookup[*future[terminationResult]] {
		rec, owned := m.records[id]
		if !owned {
			return lookup[*future[terminationResult]]{err: ErrNotOwned}
		}
		return lookup[*future[terminationResult]]{value: rec.terminationPromise}
	})
	if l.err != nil {
		return Termination{}, l.err
	}

	res, err := l.value.wait(ctx)
	if err != nil {
		return Termination{}, err
	}
	if res.err != nil {
		return Termination{}, res.err
	}
	return res.term, nil
}
