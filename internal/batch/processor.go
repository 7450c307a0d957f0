// Package batch runs an operation over fixed-size chunks of a slice with a
// cap on how many chunks are in flight.
package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Op processes one batch. Failures must be handled inside op; the processor
// never retries and never inspects results.
type Op[T, R any] func(ctx context.Context, batch []T) R

// Chunk splits items into contiguous batches of size; the last may be shorter.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// Process runs op over every batch with at most maxConcurrent batches running
// at once. Batches are launched in input order and results[i] always belongs
// to batch i, whatever order they finish in. A maxConcurrent of 1 or less runs
// the batches sequentially.
//
// An error is returned only for a non-positive batch size or when ctx is done
// before every batch could be admitted; batches already running are waited for.
func Process[T, R any](ctx context.Context, items []T, batchSize, maxConcurrent int, op Op[T, R]) ([]R, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if maxConcurrent <= 1 {
		return Sequential(ctx, items, batchSize, op)
	}

	batches := Chunk(items, batchSize)
	results := make([]R, len(batches))
	sem := semaphore.NewWeighted(int64(maxConcurrent))

	var (
		wg  sync.WaitGroup
		err error
	)
	for i, b := range batches {
		if err = sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, b []T) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = op(ctx, b)
		}(i, b)
	}
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return results, nil
}

// Sequential runs op over every batch one after another.
func Sequential[T, R any](ctx context.Context, items []T, batchSize int, op Op[T, R]) ([]R, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	batches := Chunk(items, batchSize)
	results := make([]R, 0, len(batches))
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, op(ctx, b))
	}
	return results, nil
}

// Flatten concatenates per-batch result slices in order.
func Flatten[R any](results [][]R) []R {
	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]R, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
