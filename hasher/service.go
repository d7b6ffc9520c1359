package hasher

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
)

// Service resolves combined hash codes of values with a frozen set of
// Options. A Service is safe for concurrent use, each call owns its own
// Mixer.
type Service struct {
	options *Options

	sync     *engine
	deferred *engine
}

// New creates a Service, opts are copied so later changes to them, new
// registrations included, are not seen. A nil opts means default options.
func New(opts *Options) *Service {
	if opts == nil {
		opts = NewOptions()
	}

	frozen := opts.clone()

	return &Service{
		options:  frozen,
		sync:     &engine{options: frozen},
		deferred: &engine{options: frozen, deferred: true},
	}
}

// NestedHashing reports whether structured contributor values are resolved
// recursively.
func (s *Service) NestedHashing() bool {
	return s.options.NestedHashing
}

// IterateEnumerables reports whether enumerable values are iterated.
func (s *Service) IterateEnumerables() bool {
	return s.options.IterateEnumerables
}

// Resolve returns the combined hash of value using its type's default
// contributors, or the accessors registered for its type.
func (s *Service) Resolve(value any) (int32, error) {
	return s.sync.resolve(context.Background(), value)
}

// ResolveFields returns the combined hash of value restricted to the named
// contributors, in the given order.
func (s *Service) ResolveFields(value any, names ...string) (int32, error) {
	return s.sync.resolveFields(context.Background(), value, names)
}

// ResolveDeferred is the deferred counterpart of Resolve, Awaitable
// contributors are awaited one after the other and their result hashed.
func (s *Service) ResolveDeferred(ctx context.Context, value any) (int32, error) {
	return s.deferred.resolve(ctx, value)
}

// ResolveFieldsDeferred is the deferred counterpart of ResolveFields.
func (s *Service) ResolveFieldsDeferred(ctx context.Context, value any, names ...string) (int32, error) {
	return s.deferred.resolveFields(ctx, value, names)
}

// ResolveAsync runs ResolveDeferred in its own goroutine.
func (s *Service) ResolveAsync(ctx context.Context, value any) *Future[int32] {
	return Go(ctx, func(ctx context.Context) (int32, error) {
		return s.ResolveDeferred(ctx, value)
	})
}

// ResolveWith returns the combined hash of value from the given accessors,
// field discovery and registrations are bypassed. A nil Service means the
// default one.
func ResolveWith[T any](s *Service, value T, accessors ...Accessor[T]) (int32, error) {
	if len(accessors) == 0 {
		return 0, fmt.Errorf("resolve %s: %w", typeOf[T](), ErrNoContributors)
	}

	if isNilRoot(value) {
		return 0, nil
	}

	return orDefault(s).sync.fold(context.Background(), syncAccessors[T](accessors).sources(value))
}

// ResolveWithDeferred is the deferred counterpart of ResolveWith.
func ResolveWithDeferred[T any](ctx context.Context, s *Service, value T, accessors ...AsyncAccessor[T]) (int32, error) {
	if len(accessors) == 0 {
		return 0, fmt.Errorf("resolve %s: %w", typeOf[T](), ErrNoContributors)
	}

	if isNilRoot(value) {
		return 0, nil
	}

	return orDefault(s).deferred.fold(ctx, asyncAccessors[T](accessors).sources(value))
}

func (e *engine) resolveFields(ctx context.Context, value any, names []string) (int32, error) {
	if len(names) == 0 {
		return 0, fmt.Errorf("resolve %T: %w", value, ErrNoContributors)
	}

	value, err := e.obtain(ctx, value)
	if err != nil {
		return 0, err
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, nil
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return 0, nil
	}

	if rv.Kind() != reflect.Struct {
		return 0, fmt.Errorf("type %s has no contributor %q: %w", rv.Type(), names[0], ErrUnknownField)
	}

	return e.structure(ctx, rv, names)
}

func isNilRoot[T any](value T) bool {
	boxed := any(value)
	if boxed == nil {
		return true
	}

	return isNilValue(reflect.ValueOf(boxed))
}

var defaultService atomic.Pointer[Service]

func init() {
	defaultService.Store(New(nil))
}

// Default returns the process wide Service used by the package level
// functions. Unless replaced with SetDefault, it has default options and no
// registrations.
func Default() *Service {
	return defaultService.Load()
}

// SetDefault replaces the process wide Service, a nil s restores one with
// default options. Calls already running keep the Service they started with.
func SetDefault(s *Service) {
	if s == nil {
		s = New(nil)
	}

	defaultService.Store(s)
}

func orDefault(s *Service) *Service {
	if s == nil {
		return Default()
	}

	return s
}

// Resolve calls Resolve on the default Service.
func Resolve(value any) (int32, error) {
	return Default().Resolve(value)
}

// ResolveFields calls ResolveFields on the default Service.
func ResolveFields(value any, names ...string) (int32, error) {
	return Default().ResolveFields(value, names...)
}

// ResolveDeferred calls ResolveDeferred on the default Service.
func ResolveDeferred(ctx context.Context, value any) (int32, error) {
	return Default().ResolveDeferred(ctx, value)
}

// ResolveFieldsDeferred calls ResolveFieldsDeferred on the default Service.
func ResolveFieldsDeferred(ctx context.Context, value any, names ...string) (int32, error) {
	return Default().ResolveFieldsDeferred(ctx, value, names...)
}

// ResolveAsync calls ResolveAsync on the default Service.
func ResolveAsync(ctx context.Context, value any) *Future[int32] {
	return Default().ResolveAsync(ctx, value)
}
