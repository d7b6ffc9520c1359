package hasher

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/streamingfast/fieldhash/hashcode"
)

// HashCoder is implemented by types providing their own terminal hash. It is
// used whenever a value of the type is not structurally resolved.
type HashCoder interface {
	HashCode() int32
}

// scalarHash returns the native integer representation of a bool or numeric
// value, named types (enums) included.
func scalarHash(rv reflect.Value) int32 {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return hashcode.Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return hashcode.Int(rv.Uint())
	case reflect.Float32:
		return hashcode.Float32(float32(rv.Float()))
	case reflect.Float64:
		return hashcode.Float64(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		var h hashcode.HashCode
		h.AddComplex128(rv.Complex())
		return h.ToHashCode()
	}

	panic(fmt.Errorf("value of kind %s is not a scalar", rv.Kind()))
}

// identityHash is the terminal hash of a value that is not resolved
// structurally. Reference kinds hash their address so two distinct instances
// with the same content differ, plain struct and array values hash their
// content.
func identityHash(value any, rv reflect.Value) (int32, error) {
	if coder, ok := value.(HashCoder); ok {
		return coder.HashCode(), nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return hashcode.Fold64(uint64(rv.Pointer())), nil
	}

	return contentHash(value)
}

// contentHash hashes values without addressable identity. Binary and text
// marshalers are preferred because they see unexported state (time.Time for
// example) which reflection based hashing skips.
func contentHash(value any) (int32, error) {
	switch v := value.(type) {
	case encoding.BinaryMarshaler:
		data, err := v.MarshalBinary()
		if err != nil {
			return 0, fmt.Errorf("marshal binary %T: %w", value, err)
		}
		return hashcode.Bytes(data), nil

	case encoding.TextMarshaler:
		data, err := v.MarshalText()
		if err != nil {
			return 0, fmt.Errorf("marshal text %T: %w", value, err)
		}
		return hashcode.Bytes(data), nil
	}

	if rv := reflect.ValueOf(value); rv.IsValid() && containsOpaque(rv.Type()) {
		return walkContent(rv)
	}

	hash, err := hashstructure.Hash(value, hashstructure.FormatV2, &hashstructure.HashOptions{
		ZeroNil:         true,
		IgnoreZeroValue: false,
		SlicesAsSets:    false,
		UseStringer:     false,
	})
	if err != nil {
		return 0, fmt.Errorf("content hash of %T: %w", value, err)
	}

	return hashcode.Fold64(hash), nil
}

var opaqueTypes sync.Map

// containsOpaque reports whether values of t may hold a func, chan or unsafe
// pointer that hashstructure refuses to hash. Interfaces count since their
// dynamic content is unknown. Unexported struct fields are skipped, they are
// never hashed.
func containsOpaque(t reflect.Type) bool {
	if cached, found := opaqueTypes.Load(t); found {
		return cached.(bool)
	}

	opaque := findOpaque(t, map[reflect.Type]bool{})
	opaqueTypes.Store(t, opaque)

	return opaque
}

func findOpaque(t reflect.Type, visited map[reflect.Type]bool) bool {
	if visited[t] {
		return false
	}
	visited[t] = true

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return findOpaque(t.Elem(), visited)
	case reflect.Map:
		return findOpaque(t.Key(), visited) || findOpaque(t.Elem(), visited)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if field := t.Field(i); field.IsExported() && findOpaque(field.Type, visited) {
				return true
			}
		}
	}

	return false
}

// walkContent hashes a value whose type holds opaque kinds. Funcs, chans and
// unsafe pointers hash their address, everything hashstructure accepts is
// handed back to contentHash.
func walkContent(rv reflect.Value) (int32, error) {
	if !containsOpaque(rv.Type()) {
		if !rv.CanInterface() {
			return 0, nil
		}
		return contentHash(rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, nil
		}
		return hashcode.Fold64(uint64(rv.Pointer())), nil

	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return 0, nil
		}
		return walkContent(rv.Elem())

	case reflect.Struct:
		var local hashcode.HashCode
		for i := 0; i < rv.NumField(); i++ {
			if !rv.Type().Field(i).IsExported() {
				continue
			}

			hash, err := walkContent(rv.Field(i))
			if err != nil {
				return 0, fmt.Errorf("field %s: %w", rv.Type().Field(i).Name, err)
			}
			local.Add(hash)
		}
		return local.ToHashCode(), nil

	case reflect.Slice, reflect.Array:
		var local hashcode.HashCode
		for i := 0; i < rv.Len(); i++ {
			hash, err := walkContent(rv.Index(i))
			if err != nil {
				return 0, fmt.Errorf("element %d: %w", i, err)
			}
			local.Add(hash)
		}
		return local.ToHashCode(), nil

	case reflect.Map:
		entries := make([]int32, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := walkContent(iter.Key())
			if err != nil {
				return 0, err
			}

			value, err := walkContent(iter.Value())
			if err != nil {
				return 0, err
			}
			entries = append(entries, hashcode.Combine(key, value))
		}
		slices.Sort(entries)

		var local hashcode.HashCode
		for _, entry := range entries {
			local.Add(entry)
		}
		return local.ToHashCode(), nil
	}

	return 0, fmt.Errorf("content hash of unexpected kind %s", rv.Kind())
}
