package core

import (
	"context"
	"sync"
)

// Completion receives the outcome of a callback-style operation.
type Completion[T any] func(result T, err error)

// ErrCompletion receives the outcome of an operation with no payload.
type ErrCompletion func(err error)

// runAsync runs op on its own goroutine and delivers the outcome to done
// exactly once. The context-based operation stays the single implementation.
func runAsync[T any](ctx context.Context, op func(context.Context) (T, error), done Completion[T]) {
	if ctx == nil {
		ctx = context.Background()
	}
	var once sync.Once
	deliver := func(result T, err error) {
		once.Do(func() {
			if done != nil {
				done(result, err)
			}
		})
	}
	go func() {
		result, err := op(ctx)
		deliver(result, err)
	}()
}

func runAsyncErr(ctx context.Context, op func(context.Context) error, done ErrCompletion) {
	runAsync(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, func(_ struct{}, err error) {
		if done != nil {
			done(err)
		}
	})
}
