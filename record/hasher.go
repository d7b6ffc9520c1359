package record

import (
	"encoding/json"
	"fmt"

	"github.com/streamingfast/fieldhash/hashcode"
	"github.com/streamingfast/fieldhash/hasher"
	"go.uber.org/zap"
)

// Hasher computes the combined hash of records from an ordered list of keys.
//
// Every key contributes its value, a key absent from the record contributes
// nil. Nested arrays and objects are always iterated: arrays in element
// order, objects in sorted key order with each entry contributing its key
// then its value.
type Hasher struct {
	service *hasher.Service
	keys    []string
}

// NewHasher returns a Hasher using keys as contributors, in order. Without
// keys, every key of a record contributes, in sorted order. A nil service
// means the default one.
func NewHasher(service *hasher.Service, keys ...string) *Hasher {
	if service == nil {
		service = hasher.Default()
	}

	return &Hasher{
		service: service,
		keys:    append([]string(nil), keys...),
	}
}

func (h *Hasher) Keys() []string {
	return h.keys
}

// Hash returns the combined hash of r, a nil record hashes to 0.
func (h *Hasher) Hash(r Record) (int32, error) {
	if r == nil {
		return 0, nil
	}

	keys := h.keys
	if len(keys) == 0 {
		keys = r.Keys()
	}

	values := make([]any, len(keys))
	for i, key := range keys {
		value, err := h.normalize(r[key])
		if err != nil {
			return 0, fmt.Errorf("key %q: %w", key, err)
		}

		values[i] = value
	}

	if tracer.Enabled() {
		zlog.Debug("hashing record", zap.Strings("keys", keys))
	}

	return h.fold(values)
}

func (h *Hasher) fold(values []any) (int32, error) {
	accessors := make([]hasher.Accessor[[]any], len(values))
	for i := range values {
		i := i
		accessors[i] = func(values []any) any { return values[i] }
	}

	return hasher.ResolveWith(h.service, values, accessors...)
}

// normalize turns a decoded JSON value into a terminal contributor value,
// nested arrays and objects are replaced by their own hash.
func (h *Hasher) normalize(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		return v.String(), nil

	case []any:
		return h.nested(len(v), func(yield func(any)) {
			for _, element := range v {
				yield(element)
			}
		})

	case map[string]any:
		return h.object(v)

	case Record:
		return h.object(v)
	}

	return value, nil
}

func (h *Hasher) object(m map[string]any) (any, error) {
	keys := sortedKeys(m)

	return h.nested(2*len(keys), func(yield func(any)) {
		for _, key := range keys {
			yield(key)
			yield(m[key])
		}
	})
}

// nested hashes count values in a Mixer of their own. An empty array or
// object hashes like an empty Mixer.
func (h *Hasher) nested(count int, each func(yield func(any))) (any, error) {
	if count == 0 {
		return hashcode.Combine(), nil
	}

	values := make([]any, 0, count)

	var err error
	each(func(value any) {
		if err != nil {
			return
		}

		var normalized any
		if normalized, err = h.normalize(value); err == nil {
			values = append(values, normalized)
		}
	})
	if err != nil {
		return nil, err
	}

	return h.fold(values)
}
