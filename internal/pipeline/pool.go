package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExtractionWorkers sizes the extraction pool to the available parallelism,
// never below floor.
func ExtractionWorkers(floor int) int {
	return max(runtime.GOMAXPROCS(0), floor, 1)
}

// Partition splits items into consecutive slices of at most size elements.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// ForEach runs fn for every item on at most limit goroutines and returns once
// all of them finished. A failing item does not cancel its siblings; the
// first error is returned.
func ForEach[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, i int, item T) error) error {
	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, item := range items {
		g.Go(func() error {
			return fn(ctx, i, item)
		})
	}
	return g.Wait()
}
