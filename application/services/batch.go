package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MaxBatchItems caps the number of items a single batch call accepts.
const MaxBatchItems = 500

// BatchFailure is one item of a batch that did not succeed.
type BatchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult is the itemized outcome of a batch. Batches are not atomic:
// every item succeeds or fails on its own.
type BatchResult[T any] struct {
	Succeeded []T            `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

func newBatchResult[T any]() *BatchResult[T] {
	return &BatchResult[T]{Succeeded: []T{}, Failed: []BatchFailure{}}
}

// fanOut runs fn for every index with at most limit calls in flight.
// fn reports per-item outcomes itself, so a failing item never cancels the rest.
func fanOut(ctx context.Context, limit, n int, fn func(ctx context.Context, i int)) error {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
