package hasher

import (
	"context"
	"fmt"
)

// TypedHasher hashes values of a single type T. It exposes a type erased
// entry point, HashAny, for callers holding values whose static type was
// lost.
type TypedHasher[T any] struct {
	service   *Service
	accessors []Accessor[T]
}

// NewTypedHasher returns a TypedHasher using accessors when given, or the
// Service resolution rules for T otherwise. A nil Service means the default
// one.
func NewTypedHasher[T any](s *Service, accessors ...Accessor[T]) *TypedHasher[T] {
	return &TypedHasher[T]{
		service:   orDefault(s),
		accessors: append([]Accessor[T](nil), accessors...),
	}
}

func (h *TypedHasher[T]) Hash(value T) (int32, error) {
	if len(h.accessors) > 0 {
		return ResolveWith(h.service, value, h.accessors...)
	}

	return h.service.Resolve(value)
}

// HashDeferred is the deferred counterpart of Hash.
func (h *TypedHasher[T]) HashDeferred(ctx context.Context, value T) (int32, error) {
	if len(h.accessors) > 0 {
		if isNilRoot(value) {
			return 0, nil
		}

		return h.service.deferred.fold(ctx, syncAccessors[T](h.accessors).sources(value))
	}

	return h.service.ResolveDeferred(ctx, value)
}

// HashAny hashes value which must be a T, a nil value hashes to 0.
func (h *TypedHasher[T]) HashAny(value any) (int32, error) {
	if value == nil {
		return 0, nil
	}

	typed, ok := value.(T)
	if !ok {
		return 0, fmt.Errorf("expected %s, got %T: %w", typeOf[T](), value, ErrTypeMismatch)
	}

	return h.Hash(typed)
}
