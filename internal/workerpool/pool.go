// Package workerpool runs per-pathway fetch/parse work across a bounded
// number of goroutines, so the index builders can fan out across pathways
// without unbounded goroutine growth or unsynchronized access to shared
// merge state. The scorer CLI does not use it; it scores pathways
// sequentially.
//
// Grounded on a reference internal/github/extractor.go shape
// (golang.org/x/sync/errgroup for fan-out with first-error cancellation),
// adding an explicit concurrency cap via errgroup.Group.SetLimit since the
// source spawns one goroutine per task unconditionally, which this package's
// per-pathway workloads (worst case: every pathway in an organism) cannot
// assume is safe to do unbounded.
package workerpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Run executes one task per item in items, with at most `limit` running
// concurrently (limit <= 0 defaults to GOMAXPROCS). It returns the first
// error encountered, at which point the shared context is canceled and the
// remaining in-flight tasks should observe ctx.Done() and wind down; Run
// still waits for every already-started goroutine to return before
// propagating the error.
func Run[T any](ctx context.Context, items []T, limit int, task func(ctx context.Context, item T) error) error {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			return task(gctx, item)
		})
	}
	return g.Wait()
}

// RunCollect is Run's counterpart for tasks that produce a per-item result.
// Results are written into a slice the same length as items (index i holds
// task(items[i])'s result), so a caller can safely ignore ordering during
// execution while preserving the deterministic item order afterward. A
// task error aborts the pool and propagates; RunCollect then returns a nil
// slice, discarding any results already produced for other items.
func RunCollect[T, R any](ctx context.Context, items []T, limit int, task func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	err := Run(ctx, indices(len(items)), limit, func(ctx context.Context, i int) error {
		r, err := task(ctx, items[i])
		if err != nil {
			return err
		}
		results[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
