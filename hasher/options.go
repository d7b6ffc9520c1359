package hasher

import (
	"context"
	"fmt"
	"reflect"
)

// Accessor returns the value of one contributor of T.
type Accessor[T any] func(value T) any

// AsyncAccessor returns the value of one contributor of T, possibly waiting
// for it. The returned value may itself be an Awaitable, it is awaited too.
type AsyncAccessor[T any] func(ctx context.Context, value T) (any, error)

// Options configures a Service. Options are copied when the Service is
// created, changes made afterwards are not seen by the Service.
type Options struct {
	// NestedHashing makes structured contributor values resolved recursively
	// instead of being hashed by identity. Disabled by default.
	NestedHashing bool

	// IterateEnumerables makes enumerable contributor values iterated when
	// nested hashing is enabled. Enabled by default.
	IterateEnumerables bool

	sync  map[reflect.Type]erasedHasher
	async map[reflect.Type]erasedHasher
}

type Option func(o *Options)

func NewOptions(opts ...Option) *Options {
	o := &Options{
		NestedHashing:      false,
		IterateEnumerables: true,
		sync:               map[reflect.Type]erasedHasher{},
		async:              map[reflect.Type]erasedHasher{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithNestedHashing() Option {
	return func(o *Options) {
		o.NestedHashing = true
	}
}

func WithoutNestedHashing() Option {
	return func(o *Options) {
		o.NestedHashing = false
	}
}

func WithIterateEnumerables(enabled bool) Option {
	return func(o *Options) {
		o.IterateEnumerables = enabled
	}
}

// RegisterSync installs accessors used instead of field discovery whenever a
// value of type T is resolved, either as a root value or as a nested one.
func RegisterSync[T any](o *Options, accessors ...Accessor[T]) error {
	if len(accessors) == 0 {
		return fmt.Errorf("register %s: %w", typeOf[T](), ErrNoContributors)
	}

	if o.sync == nil {
		o.sync = map[reflect.Type]erasedHasher{}
	}

	o.sync[typeOf[T]()] = syncAccessors[T](append([]Accessor[T](nil), accessors...))
	return nil
}

// RegisterAsync installs accessors used by the deferred resolvers whenever a
// value of type T is resolved. They take precedence over accessors installed
// with RegisterSync.
func RegisterAsync[T any](o *Options, accessors ...AsyncAccessor[T]) error {
	if len(accessors) == 0 {
		return fmt.Errorf("register async %s: %w", typeOf[T](), ErrNoContributors)
	}

	if o.async == nil {
		o.async = map[reflect.Type]erasedHasher{}
	}

	o.async[typeOf[T]()] = asyncAccessors[T](append([]AsyncAccessor[T](nil), accessors...))
	return nil
}

func (o *Options) clone() *Options {
	out := &Options{
		NestedHashing:      o.NestedHashing,
		IterateEnumerables: o.IterateEnumerables,
		sync:               make(map[reflect.Type]erasedHasher, len(o.sync)),
		async:              make(map[reflect.Type]erasedHasher, len(o.async)),
	}

	for t, h := range o.sync {
		out.sync[t] = h
	}
	for t, h := range o.async {
		out.async[t] = h
	}

	return out
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// erasedHasher hashes a value whose static type was erased, it fails with
// ErrTypeMismatch when the value is not of the type it was built for.
type erasedHasher interface {
	hashAny(ctx context.Context, e *engine, value any) (int32, error)
}

type syncAccessors[T any] []Accessor[T]

func (a syncAccessors[T]) hashAny(ctx context.Context, e *engine, value any) (int32, error) {
	typed, ok := value.(T)
	if !ok {
		return 0, fmt.Errorf("expected %s, got %T: %w", typeOf[T](), value, ErrTypeMismatch)
	}

	return e.fold(ctx, a.sources(typed))
}

func (a syncAccessors[T]) sources(value T) []source {
	out := make([]source, len(a))
	for i, accessor := range a {
		accessor := accessor
		out[i] = source{
			name: accessorName(i),
			get: func(context.Context) (any, error) {
				return accessor(value), nil
			},
		}
	}

	return out
}

type asyncAccessors[T any] []AsyncAccessor[T]

func (a asyncAccessors[T]) hashAny(ctx context.Context, e *engine, value any) (int32, error) {
	typed, ok := value.(T)
	if !ok {
		return 0, fmt.Errorf("expected %s, got %T: %w", typeOf[T](), value, ErrTypeMismatch)
	}

	return e.fold(ctx, a.sources(typed))
}

func (a asyncAccessors[T]) sources(value T) []source {
	out := make([]source, len(a))
	for i, accessor := range a {
		accessor := accessor
		out[i] = source{
			name: accessorName(i),
			get: func(ctx context.Context) (any, error) {
				return accessor(ctx, value)
			},
		}
	}

	return out
}

func accessorName(i int) string {
	return fmt.Sprintf("accessor #%d", i)
}
