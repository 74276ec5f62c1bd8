package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Positive(t, Workers(0))
	assert.Positive(t, Workers(-1))
}

func TestRowsVisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 7, 64} {
		seen := make([]int32, 50)
		err := Rows(context.Background(), len(seen), workers, func(y int) {
			atomic.AddInt32(&seen[y], 1)
		})
		require.NoError(t, err)
		for y, n := range seen {
			assert.Equal(t, int32(1), n, "workers=%d row=%d", workers, y)
		}
	}
}

func TestRowsEmpty(t *testing.T) {
	called := false
	require.NoError(t, Rows(context.Background(), 0, 4, func(int) { called = true }))
	assert.False(t, called)
}

func TestRowsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := Rows(ctx, 100, 4, func(int) { atomic.AddInt32(&calls, 1) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)

	ctx, cancel = context.WithCancel(context.Background())
	err = Rows(ctx, 100, 1, func(y int) {
		if y == 10 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
