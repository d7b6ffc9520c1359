package hasher

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FieldConfigurer is implemented by types declaring explicitly which fields
// contribute to their hash and in which order. It is called once per type on
// a zero value, the list must not depend on the receiver's content.
//
// When implemented, only the listed fields contribute, exported or not, and
// the include/exclude tag markers are ignored.
type FieldConfigurer interface {
	HashFields() []string
}

type descriptor struct {
	typ          reflect.Type
	contributors []Contributor
	byName       map[string]int
}

func (d *descriptor) lookup(names []string) (out []Contributor, err error) {
	out = make([]Contributor, len(names))
	for i, name := range names {
		idx, found := d.byName[name]
		if !found {
			return nil, fmt.Errorf("type %s has no contributor %q: %w", d.typ, name, ErrUnknownField)
		}

		out[i] = d.contributors[idx]
	}

	return out, nil
}

type descriptorEntry struct {
	descriptor *descriptor
	err        error
}

// descriptorCache holds one descriptor per type for the process lifetime.
// Concurrent first requests for the same type are collapsed into a single
// build, readers never observe a partially built descriptor.
type descriptorCache struct {
	entries sync.Map
	group   singleflight.Group
}

var descriptors = &descriptorCache{}

func (c *descriptorCache) get(t reflect.Type) (*descriptor, error) {
	if entry, found := c.entries.Load(t); found {
		return entry.(*descriptorEntry).descriptor, entry.(*descriptorEntry).err
	}

	value, _, _ := c.group.Do(typeKey(t), func() (any, error) {
		if entry, found := c.entries.Load(t); found {
			return entry, nil
		}

		descriptor, err := buildDescriptor(t)
		entry, _ := c.entries.LoadOrStore(t, &descriptorEntry{descriptor: descriptor, err: err})

		return entry, nil
	})

	entry := value.(*descriptorEntry)
	return entry.descriptor, entry.err
}

// typeKey is unique per type, two types may share the same String() when they
// come from different packages.
func typeKey(t reflect.Type) string {
	return fmt.Sprintf("%s@%p", t, t)
}

func buildDescriptor(t reflect.Type) (*descriptor, error) {
	d := &descriptor{
		typ:    t,
		byName: map[string]int{},
	}

	if t.Kind() != reflect.Struct {
		return d, nil
	}

	names, configured := configuredFields(t)

	var err error
	if configured {
		err = d.addConfigured(names)
	} else {
		err = d.addDiscovered()
	}

	if err != nil {
		zlog.Debug("type descriptor build failed", zap.Stringer("type", t), zap.Error(err))
		return nil, err
	}

	zlog.Debug("type descriptor built",
		zap.Stringer("type", t),
		zap.Bool("configured", configured),
		zap.Int("contributor_count", len(d.contributors)),
	)

	if tracer.Enabled() {
		for _, contributor := range d.contributors {
			zlog.Debug("type contributor", zap.Stringer("type", t), zap.Stringer("contributor", contributor))
		}
	}

	return d, nil
}

func configuredFields(t reflect.Type) (names []string, configured bool) {
	configurer, ok := reflect.New(t).Interface().(FieldConfigurer)
	if !ok {
		return nil, false
	}

	return configurer.HashFields(), true
}

func (d *descriptor) addConfigured(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("type %s configures an empty list of fields: %w", d.typ, ErrConfigurationMismatch)
	}

	for _, name := range names {
		if _, found := d.byName[name]; found {
			return fmt.Errorf("type %s configures field %q more than once: %w", d.typ, name, ErrConfigurationMismatch)
		}

		field, found := d.typ.FieldByName(name)
		if !found || len(field.Index) != 1 {
			return fmt.Errorf("type %s configures field %q which does not exist: %w", d.typ, name, ErrConfigurationMismatch)
		}

		tag, err := parseFieldTag(field)
		if err != nil {
			return fmt.Errorf("type %s: %w", d.typ, err)
		}

		d.add(newContributor(field, tag))
	}

	return nil
}

func (d *descriptor) addDiscovered() error {
	for i := 0; i < d.typ.NumField(); i++ {
		field := d.typ.Field(i)
		if field.Name == "_" {
			continue
		}

		tag, err := parseFieldTag(field)
		if err != nil {
			return fmt.Errorf("type %s: %w", d.typ, err)
		}

		if tag.exclude {
			continue
		}

		if !field.IsExported() && !tag.include {
			continue
		}

		d.add(newContributor(field, tag))
	}

	return nil
}

func (d *descriptor) add(contributor Contributor) {
	d.byName[contributor.Name] = len(d.contributors)
	d.contributors = append(d.contributors, contributor)
}

// Contributors returns the default ordered contributors of value's type, pointers
// are dereferenced. Types that are not structs have no contributors.
func Contributors(value any) ([]Contributor, error) {
	t := reflect.TypeOf(value)
	if t == nil {
		return nil, nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	d, err := descriptors.get(t)
	if err != nil {
		return nil, err
	}

	out := make([]Contributor, len(d.contributors))
	copy(out, d.contributors)

	return out, nil
}
