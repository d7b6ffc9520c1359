package hasher

import (
	"fmt"
	"reflect"
	"strings"
)

const tagName = "hash"

// Contributor is a named, ordered source of a value feeding the combined hash.
type Contributor struct {
	Name string
	Type reflect.Type

	// Deferred is set when the declared type is an Awaitable.
	Deferred bool
	// Enumerable is set when the declared type, or the type produced by a
	// deferred field, is a slice, an array or a map that is not a string nor
	// a byte slice.
	Enumerable bool
	// ForceEnumerate makes the value iterated even when nested hashing or
	// enumerables iteration are disabled.
	ForceEnumerate bool

	index    int
	exported bool
}

func (c Contributor) String() string {
	var flags []string
	if c.Deferred {
		flags = append(flags, "deferred")
	}
	if c.Enumerable {
		flags = append(flags, "enumerable")
	}
	if c.ForceEnumerate {
		flags = append(flags, "enumerate")
	}

	if len(flags) == 0 {
		return fmt.Sprintf("%s %s", c.Name, c.Type)
	}

	return fmt.Sprintf("%s %s (%s)", c.Name, c.Type, strings.Join(flags, ","))
}

func newContributor(field reflect.StructField, tag fieldTag) Contributor {
	deferred := field.Type.Implements(awaitableType)

	produced := field.Type
	if deferred {
		produced = producedType(field.Type)
	}

	return Contributor{
		Name:           field.Name,
		Type:           field.Type,
		Deferred:       deferred,
		Enumerable:     produced != nil && isEnumerableType(produced),
		ForceEnumerate: tag.enumerate,
		index:          field.Index[0],
		exported:       field.IsExported(),
	}
}

// producedType returns the type an Awaitable type resolves to, or nil when it
// cannot be known without awaiting.
func producedType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Interface {
		return nil
	}

	if typer, ok := reflect.Zero(t).Interface().(resultTyper); ok {
		return typer.ResultType()
	}

	return nil
}

func isEnumerableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Map:
		return true
	}

	return false
}

type fieldTag struct {
	include   bool
	exclude   bool
	enumerate bool
}

// parseFieldTag reads the `hash` struct tag, options are comma separated:
//
//	hash:"-"                 excluded
//	hash:"exclude"           excluded
//	hash:"include"           unexported field included
//	hash:"include,enumerate" included and always iterated
func parseFieldTag(field reflect.StructField) (out fieldTag, err error) {
	tag, found := field.Tag.Lookup(tagName)
	if !found || tag == "" {
		return
	}

	if tag == "-" {
		out.exclude = true
		return
	}

	for _, option := range strings.Split(tag, ",") {
		switch strings.TrimSpace(option) {
		case "include":
			out.include = true
		case "exclude":
			out.exclude = true
		case "enumerate":
			out.enumerate = true
		case "":
		default:
			return out, fmt.Errorf("field %q has unknown %s tag option %q: %w", field.Name, tagName, option, ErrConfigurationMismatch)
		}
	}

	return
}
