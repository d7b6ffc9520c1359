package hasher

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"unsafe"

	"github.com/streamingfast/fieldhash/hashcode"
	"go.uber.org/zap"
)

// source is one contributor ready to be read, in the order it must be mixed.
type source struct {
	name  string
	force bool
	get   func(ctx context.Context) (any, error)
}

// engine folds contributor values into a hash. The synchronous and the
// deferred resolvers share it, the only difference being that the deferred one
// awaits every Awaitable value before classifying it.
type engine struct {
	options  *Options
	deferred bool
}

func (e *engine) fold(ctx context.Context, sources []source) (int32, error) {
	var h hashcode.HashCode

	for _, source := range sources {
		value, err := source.get(ctx)
		if err != nil {
			return 0, fmt.Errorf("contributor %q: %w", source.name, err)
		}

		if err := e.contribute(ctx, &h, value, source.force); err != nil {
			return 0, fmt.Errorf("contributor %q: %w", source.name, err)
		}
	}

	return h.ToHashCode(), nil
}

// obtain returns the value to classify, awaiting it first when resolving in
// deferred mode. A deferred computation producing another one is awaited
// again.
func (e *engine) obtain(ctx context.Context, value any) (any, error) {
	if !e.deferred {
		return value, nil
	}

	for {
		awaitable, ok := value.(Awaitable)
		if !ok || isNilValue(reflect.ValueOf(awaitable)) {
			return value, nil
		}

		var err error
		if value, err = awaitable.AwaitAny(ctx); err != nil {
			return nil, fmt.Errorf("await %T: %w", awaitable, err)
		}
	}
}

// resolve computes the hash of a root value, nested structured values are
// resolved through it too.
func (e *engine) resolve(ctx context.Context, value any) (int32, error) {
	value, err := e.obtain(ctx, value)
	if err != nil {
		return 0, err
	}

	cls, rv := classify(value)
	switch cls {
	case classNil:
		return 0, nil
	case classString:
		return hashcode.String(rv.String()), nil
	case classScalar:
		return scalarHash(rv), nil
	case classBytes:
		return hashcode.Bytes(bytesOf(rv)), nil
	case classPointer:
		return e.resolve(ctx, rv.Elem().Interface())
	case classEnumerable:
		if e.options.IterateEnumerables {
			return e.enumerable(ctx, rv)
		}
	case classStructured:
		if registered, target, found := e.registered(rv); found {
			return registered.hashAny(ctx, e, target)
		}

		return e.structure(ctx, rv, nil)
	}

	return identityHash(value, rv)
}

func (e *engine) registered(rv reflect.Value) (erasedHasher, any, bool) {
	for {
		if e.deferred {
			if registered, found := e.options.async[rv.Type()]; found {
				return registered, rv.Interface(), true
			}
		}

		if registered, found := e.options.sync[rv.Type()]; found {
			return registered, rv.Interface(), true
		}

		if rv.Kind() != reflect.Pointer {
			return nil, nil, false
		}
		rv = rv.Elem()
	}
}

// structure folds the fields of a struct value, names restricts and orders
// the contributors when not nil.
func (e *engine) structure(ctx context.Context, rv reflect.Value, names []string) (int32, error) {
	target := rv
	for target.Kind() == reflect.Pointer {
		target = target.Elem()
	}

	d, err := descriptors.get(target.Type())
	if err != nil {
		return 0, err
	}

	contributors := d.contributors
	if names != nil {
		if contributors, err = d.lookup(names); err != nil {
			return 0, err
		}
	} else if len(contributors) == 0 {
		return contentHash(target.Interface())
	}

	if !target.CanAddr() {
		addressable := reflect.New(target.Type()).Elem()
		addressable.Set(target)
		target = addressable
	}

	sources := make([]source, len(contributors))
	for i, contributor := range contributors {
		sources[i] = fieldSource(target, contributor)
	}

	return e.fold(ctx, sources)
}

func fieldSource(target reflect.Value, contributor Contributor) source {
	return source{
		name:  contributor.Name,
		force: contributor.ForceEnumerate,
		get: func(context.Context) (any, error) {
			field := target.Field(contributor.index)
			if !contributor.exported {
				field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
			}

			return field.Interface(), nil
		},
	}
}

// contribute feeds value into h, force makes enumerable values iterated
// regardless of the options.
func (e *engine) contribute(ctx context.Context, h *hashcode.HashCode, value any, force bool) error {
	value, err := e.obtain(ctx, value)
	if err != nil {
		return err
	}

	cls, rv := classify(value)
	if tracer.Enabled() {
		zlog.Debug("contributing value", zap.Stringer("class", cls), zap.String("type", fmt.Sprintf("%T", value)), zap.Bool("deferred", e.deferred))
	}

	switch cls {
	case classNil:
		h.Add(0)
		return nil

	case classString:
		h.AddString(rv.String())
		return nil

	case classScalar:
		h.Add(scalarHash(rv))
		return nil

	case classBytes:
		h.AddBytes(bytesOf(rv))
		return nil

	case classPointer:
		return e.contribute(ctx, h, rv.Elem().Interface(), force)

	case classEnumerable:
		if force || (e.options.NestedHashing && e.options.IterateEnumerables) {
			hash, err := e.enumerable(ctx, rv)
			if err != nil {
				return err
			}

			h.Add(hash)
			return nil
		}

	case classStructured:
		if e.options.NestedHashing {
			hash, err := e.resolve(ctx, value)
			if err != nil {
				return err
			}

			h.Add(hash)
			return nil
		}
	}

	hash, err := identityHash(value, rv)
	if err != nil {
		return err
	}

	h.Add(hash)
	return nil
}

// enumerable hashes every element in a fresh Mixer scoped to the enumerable.
// Slices and arrays are iterated in index order, maps in key order, each
// entry contributing its key then its value.
func (e *engine) enumerable(ctx context.Context, rv reflect.Value) (int32, error) {
	var local hashcode.HashCode

	if rv.Kind() == reflect.Map {
		entries, err := e.sortedEntries(ctx, rv)
		if err != nil {
			return 0, err
		}

		for _, entry := range entries {
			if err := e.contribute(ctx, &local, entry.key.Interface(), false); err != nil {
				return 0, fmt.Errorf("map key %v: %w", entry.key, err)
			}

			if err := e.contribute(ctx, &local, entry.value.Interface(), false); err != nil {
				return 0, fmt.Errorf("map value at key %v: %w", entry.key, err)
			}
		}

		return local.ToHashCode(), nil
	}

	for i := 0; i < rv.Len(); i++ {
		if err := e.contribute(ctx, &local, rv.Index(i).Interface(), false); err != nil {
			return 0, fmt.Errorf("element %d: %w", i, err)
		}
	}

	return local.ToHashCode(), nil
}

type mapEntry struct {
	key   reflect.Value
	value reflect.Value
}

// sortedEntries orders map entries so that map hashing is deterministic, Go
// maps having no stable iteration order. Ordered kinds sort by key, other
// kinds by the key's own hash. Values are captured while ranging, a NaN key
// cannot be looked up again.
func (e *engine) sortedEntries(ctx context.Context, rv reflect.Value) ([]mapEntry, error) {
	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{key: iter.Key(), value: iter.Value()})
	}

	switch rv.Type().Key().Kind() {
	case reflect.String:
		slices.SortStableFunc(entries, func(a, b mapEntry) int { return cmp.Compare(a.key.String(), b.key.String()) })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortStableFunc(entries, func(a, b mapEntry) int { return cmp.Compare(a.key.Int(), b.key.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortStableFunc(entries, func(a, b mapEntry) int { return cmp.Compare(a.key.Uint(), b.key.Uint()) })
	case reflect.Float32, reflect.Float64:
		// NaN keys compare equal to each other, their relative order then
		// depends on the value hash.
		if err := e.sortByHash(ctx, entries, func(entry mapEntry) any { return entry.value.Interface() }); err != nil {
			return nil, err
		}
		slices.SortStableFunc(entries, func(a, b mapEntry) int { return cmp.Compare(a.key.Float(), b.key.Float()) })
	default:
		if err := e.sortByHash(ctx, entries, func(entry mapEntry) any { return entry.key.Interface() }); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (e *engine) sortByHash(ctx context.Context, entries []mapEntry, pick func(mapEntry) any) error {
	hashes := make([]int32, len(entries))
	order := make([]int, len(entries))
	for i, entry := range entries {
		var h hashcode.HashCode
		if err := e.contribute(ctx, &h, pick(entry), false); err != nil {
			return fmt.Errorf("map entry at key %v: %w", entry.key, err)
		}

		hashes[i] = h.ToHashCode()
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(hashes[a], hashes[b]) })

	sorted := make([]mapEntry, len(entries))
	for i, idx := range order {
		sorted[i] = entries[idx]
	}
	copy(entries, sorted)

	return nil
}
