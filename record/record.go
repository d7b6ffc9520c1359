package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Record is a decoded JSON object, one line of a JSONL input file.
type Record map[string]any

// Decode reads a single JSON object, numbers are kept as json.Number so that
// their textual form is hashed and large integers are not rounded.
func Decode(data []byte) (Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var out Record
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	return out, nil
}

// Keys returns the record keys, sorted.
func (r Record) Keys() []string {
	return sortedKeys(r)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
