package hasher

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type missingConfigured struct {
	A int
}

func (missingConfigured) HashFields() []string { return []string{"A", "Missing"} }

type emptyConfigured struct {
	A int
}

func (emptyConfigured) HashFields() []string { return nil }

type duplicateConfigured struct {
	A int
}

func (duplicateConfigured) HashFields() []string { return []string{"A", "A"} }

type embedded struct {
	Inner int
}

type promotedConfigured struct {
	embedded
	A int
}

func (*promotedConfigured) HashFields() []string { return []string{"A", "Inner"} }

type unknownTagOption struct {
	A int `hash:"include,sorted"`
}

type flagged struct {
	Plain    int
	Text     string
	Raw      []byte
	List     []int
	Map      map[string]int
	Forced   int `hash:"enumerate"`
	Lazy     *Future[int]
	LazyList *Future[[]string]
	Opaque   Awaitable
}

type concurrentlyBuilt struct {
	A, B, C int
}

func TestDescriptor_ConfigurationMismatch(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"missing field", missingConfigured{A: 1}},
		{"empty list", emptyConfigured{A: 1}},
		{"duplicate field", duplicateConfigured{A: 1}},
		{"promoted field", &promotedConfigured{A: 1}},
		{"unknown tag option", unknownTagOption{A: 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Resolve(test.value)
			assert.ErrorIs(t, err, ErrConfigurationMismatch)

			_, err = Resolve(test.value)
			assert.ErrorIs(t, err, ErrConfigurationMismatch, "error is cached for the type")

			_, err = Contributors(test.value)
			assert.ErrorIs(t, err, ErrConfigurationMismatch)
		})
	}
}

func TestDescriptor_ConfigurationMismatchWhenNested(t *testing.T) {
	nested := New(NewOptions(WithNestedHashing()))

	_, err := nested.Resolve(holder{Value: missingConfigured{A: 1}})
	assert.ErrorIs(t, err, ErrConfigurationMismatch)
	assert.Contains(t, err.Error(), `contributor "Value"`)
}

func TestDescriptor_Flags(t *testing.T) {
	contributors, err := Contributors(flagged{})
	require.NoError(t, err)

	type flags struct {
		deferred, enumerable, forced bool
	}

	expected := map[string]flags{
		"Plain":    {},
		"Text":     {},
		"Raw":      {},
		"List":     {enumerable: true},
		"Map":      {enumerable: true},
		"Forced":   {forced: true},
		"Lazy":     {deferred: true},
		"LazyList": {deferred: true, enumerable: true},
		"Opaque":   {deferred: true},
	}

	require.Len(t, contributors, len(expected))
	for i, contributor := range contributors {
		assert.Equal(t, reflect.TypeOf(flagged{}).Field(i).Name, contributor.Name, "declaration order")
		assert.Equal(t, expected[contributor.Name], flags{contributor.Deferred, contributor.Enumerable, contributor.ForceEnumerate}, contributor.Name)
	}
}

func TestDescriptor_NonStruct(t *testing.T) {
	contributors, err := Contributors(42)
	require.NoError(t, err)
	assert.Empty(t, contributors)

	contributors, err = Contributors(nil)
	require.NoError(t, err)
	assert.Empty(t, contributors)
}

func TestDescriptor_BuiltOnceConcurrently(t *testing.T) {
	typ := reflect.TypeOf(concurrentlyBuilt{})

	var wg sync.WaitGroup
	results := make([]*descriptor, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			d, err := descriptors.get(typ)
			if err == nil {
				results[i] = d
			}
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	for _, d := range results {
		assert.Same(t, results[0], d)
	}

	names := make([]string, len(results[0].contributors))
	for i, contributor := range results[0].contributors {
		names[i] = contributor.Name
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestParseFieldTag(t *testing.T) {
	type sample struct {
		None      int
		Dash      int `hash:"-"`
		Exclude   int `hash:"exclude"`
		Include   int `hash:"include"`
		Both      int `hash:"include, enumerate"`
		Other     int `json:"other"`
		Malformed int `hash:"nope"`
	}

	tests := []struct {
		field       string
		expected    fieldTag
		expectedErr error
	}{
		{"None", fieldTag{}, nil},
		{"Dash", fieldTag{exclude: true}, nil},
		{"Exclude", fieldTag{exclude: true}, nil},
		{"Include", fieldTag{include: true}, nil},
		{"Both", fieldTag{include: true, enumerate: true}, nil},
		{"Other", fieldTag{}, nil},
		{"Malformed", fieldTag{}, ErrConfigurationMismatch},
	}

	for _, test := range tests {
		t.Run(test.field, func(t *testing.T) {
			field, found := reflect.TypeOf(sample{}).FieldByName(test.field)
			require.True(t, found)

			tag, err := parseFieldTag(field)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expected, tag)
		})
	}
}
