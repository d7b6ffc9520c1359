package hasher

import (
	"reflect"
)

type class uint8

const (
	classNil class = iota
	classString
	classScalar
	classBytes
	classPointer
	classDeferred
	classEnumerable
	classStructured
	classOpaque
)

var (
	awaitableType = reflect.TypeOf((*Awaitable)(nil)).Elem()
)

func (c class) String() string {
	switch c {
	case classNil:
		return "nil"
	case classString:
		return "string"
	case classScalar:
		return "scalar"
	case classBytes:
		return "bytes"
	case classPointer:
		return "pointer"
	case classDeferred:
		return "deferred"
	case classEnumerable:
		return "enumerable"
	case classStructured:
		return "structured"
	default:
		return "opaque"
	}
}

// classify decides how a contributor value is fed to the Mixer. Pointers to
// anything but a struct are classified as classPointer and resolved through
// their pointee, a nil pointer of any kind is classNil.
func classify(value any) (class, reflect.Value) {
	if value == nil {
		return classNil, reflect.Value{}
	}

	rv := reflect.ValueOf(value)
	if isNilValue(rv) {
		return classNil, rv
	}

	if _, ok := value.(Awaitable); ok {
		return classDeferred, rv
	}

	switch rv.Kind() {
	case reflect.String:
		return classString, rv

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return classScalar, rv

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return classBytes, rv
		}
		return classEnumerable, rv

	case reflect.Map:
		return classEnumerable, rv

	case reflect.Struct:
		return classStructured, rv

	case reflect.Pointer:
		if rv.Elem().Kind() == reflect.Struct {
			return classStructured, rv
		}
		return classPointer, rv
	}

	return classOpaque, rv
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}

	return false
}

// bytesOf returns the content of a byte slice or byte array value.
func bytesOf(rv reflect.Value) []byte {
	if rv.Kind() == reflect.Slice {
		return rv.Bytes()
	}

	out := make([]byte, rv.Len())
	for i := range out {
		out[i] = byte(rv.Index(i).Uint())
	}

	return out
}
