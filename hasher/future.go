package hasher

import (
	"context"
	"reflect"
)

// Awaitable is a deferred computation. Contributors holding an Awaitable are
// awaited by the deferred resolvers and their result is hashed in place of
// the Awaitable itself. The synchronous resolvers hash the Awaitable's
// identity instead.
type Awaitable interface {
	AwaitAny(ctx context.Context) (any, error)
}

// resultTyper is implemented by Awaitable whose produced type is known
// statically, it is called on zero values.
type resultTyper interface {
	ResultType() reflect.Type
}

var _ Awaitable = (*Future[int])(nil)

// Future holds the eventual result of a computation running in its own
// goroutine.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in a new goroutine and returns a Future completing with its
// result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already completed Future.
func Resolved[T any](value T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value}
	close(f.done)

	return f
}

// Failed returns an already completed Future failing with err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)

	return f
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the computation completes or ctx is done, whichever
// happens first.
func (f *Future[T]) Await(ctx context.Context) (out T, err error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return out, ctx.Err()
	}
}

// AwaitAny implements Awaitable
func (f *Future[T]) AwaitAny(ctx context.Context) (any, error) {
	value, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}

	return value, nil
}

// ResultType implements resultTyper, it's allowed on nil receiver.
func (*Future[T]) ResultType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
