package containerizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureSettleIsIdempotent(t *testing.T) {
	f := newFuture[int]()
	f.settle(1)
	f.settle(2)

	v, ok := f.get()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestFutureWaitBlocksUntilSettled(t *testing.T) {
	f := newFuture[int]()

	done := make(chan int, 1)
	go func() {
		v, err := f.wait(context.Background())
		require.NoError(t, err)
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("wait returned before settle")
	case <-time.After(20 * time.Millisecond):
	}

	f.settle(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("wait never returned after settle")
	}
}

func TestFutureWaitRespectsContext(t *testing.T) {
	f := newFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFutureOnSettleFiresForAlreadySettled(t *testing.T) {
	f := settledFuture(7)

	got := make(chan int, 1)
	f.onSettle(func(v int) { got <- v })

	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("onSettle never fired for an already-settled future")
	}
}
