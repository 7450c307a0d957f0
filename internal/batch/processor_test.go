package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk(ints(5), 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, Chunk(ints(3), 20))
	assert.Nil(t, Chunk([]int{}, 3))
	assert.Nil(t, Chunk(ints(3), 0))
}

func TestProcessCapsConcurrency(t *testing.T) {
	var running, peak int32

	op := func(ctx context.Context, b []int) []int {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return b
	}

	results, err := Process(context.Background(), ints(10), 2, 2, op)
	require.NoError(t, err)

	assert.Len(t, results, 5)
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
}

func TestProcessKeepsInputOrder(t *testing.T) {
	var finished []int
	done := make(chan int, 5)

	// Earlier batches sleep longer so they finish last.
	op := func(ctx context.Context, b []int) []int {
		time.Sleep(time.Duration(6-b[0]) * 20 * time.Millisecond)
		done <- b[0]
		return []int{b[0] * 100}
	}

	results, err := Process(context.Background(), ints(5), 1, 5, op)
	require.NoError(t, err)
	close(done)
	for id := range done {
		finished = append(finished, id)
	}

	assert.NotEqual(t, []int{1, 2, 3, 4, 5}, finished)
	assert.Equal(t, []int{100, 200, 300, 400, 500}, Flatten(results))
}

func TestSequentialRunsOneAtATime(t *testing.T) {
	var running, peak int32

	op := func(ctx context.Context, b []int) int {
		if n := atomic.AddInt32(&running, 1); n > atomic.LoadInt32(&peak) {
			atomic.StoreInt32(&peak, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return len(b)
	}

	results, err := Process(context.Background(), ints(7), 3, 1, op)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, results)
	assert.Equal(t, int32(1), peak)
}

func TestProcessRejectsInvalidBatchSize(t *testing.T) {
	_, err := Process(context.Background(), ints(3), 0, 2, func(ctx context.Context, b []int) int { return 0 })
	assert.Error(t, err)
}

func TestProcessStopsAdmittingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var started int32

	op := func(ctx context.Context, b []int) int {
		atomic.AddInt32(&started, 1)
		cancel()
		<-ctx.Done()
		return 0
	}

	_, err := Process(ctx, ints(10), 1, 2, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, atomic.LoadInt32(&started), int32(2))
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Flatten([][]string{{"a"}, nil, {"b", "c"}}))
}
