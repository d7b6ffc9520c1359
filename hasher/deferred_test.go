package hasher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/streamingfast/fieldhash/hashcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lazyPair struct {
	A int
	B *Future[int]
}

type lazyList struct {
	Items *Future[[]int]
}

type lazyOuter struct {
	Name  string
	Inner *Future[*pair]
}

func TestResolveDeferred_Parity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		service *Service
		value   any
	}{
		{"pair", Default(), pair{A: 1, B: 3}},
		{"pointer", Default(), &pair{A: 1, B: 3}},
		{"nested", New(NewOptions(WithNestedHashing())), outer{Name: "x", Inner: &pair{A: 1, B: 3}}},
		{"tagged", Default(), tagged{A: 1, c: 3}},
		{"configured", Default(), configured{A: 1, secret: 3}},
		{"slice", Default(), []string{"a", "b"}},
		{"map", Default(), map[string]int{"a": 1}},
		{"scalar", Default(), 42},
		{"nil", Default(), nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expected := mustResolve(t, test.service, test.value)

			actual, err := test.service.ResolveDeferred(ctx, test.value)
			require.NoError(t, err)
			assert.Equal(t, expected, actual)

			actual, err = test.service.ResolveAsync(ctx, test.value).Await(ctx)
			require.NoError(t, err)
			assert.Equal(t, expected, actual)
		})
	}
}

func TestResolveDeferred_FutureReplacesValue(t *testing.T) {
	ctx := context.Background()
	expected := mustResolve(t, Default(), pair{A: 1, B: 3})

	resolved, err := ResolveDeferred(ctx, lazyPair{A: 1, B: Resolved(3)})
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)

	slow, err := ResolveDeferred(ctx, lazyPair{A: 1, B: Go(ctx, func(context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 3, nil
	})})
	require.NoError(t, err)
	assert.Equal(t, expected, slow)

	fields, err := ResolveFieldsDeferred(ctx, lazyPair{A: 1, B: Resolved(3)}, "B", "A")
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(3, 1), fields)
}

func TestResolveDeferred_SyncHashesFutureIdentity(t *testing.T) {
	future := Resolved(3)

	first := mustResolve(t, Default(), lazyPair{A: 1, B: future})
	second := mustResolve(t, Default(), lazyPair{A: 1, B: future})

	assert.Equal(t, first, second)
	assert.NotEqual(t, mustResolve(t, Default(), pair{A: 1, B: 3}), first)
	assert.NotEqual(t, first, mustResolve(t, Default(), lazyPair{A: 1, B: Resolved(3)}))
}

func TestResolveDeferred_RootFuture(t *testing.T) {
	ctx := context.Background()

	hash, err := ResolveDeferred(ctx, Resolved(42))
	require.NoError(t, err)
	assert.Equal(t, int32(42), hash)

	hash, err = ResolveDeferred(ctx, Resolved(Resolved(pair{A: 1, B: 3})))
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(1, 3), hash)
}

func TestResolveDeferred_EnumerableAndNested(t *testing.T) {
	ctx := context.Background()
	nested := New(NewOptions(WithNestedHashing()))

	list, err := nested.ResolveDeferred(ctx, lazyList{Items: Resolved([]int{1, 2, 3})})
	require.NoError(t, err)
	assert.Equal(t, mustResolve(t, nested, plainList{Items: []int{1, 2, 3}}), list)

	inner, err := nested.ResolveDeferred(ctx, lazyOuter{Name: "x", Inner: Resolved(&pair{A: 1, B: 3})})
	require.NoError(t, err)
	assert.Equal(t, mustResolve(t, nested, outer{Name: "x", Inner: &pair{A: 1, B: 3}}), inner)

	elements, err := nested.ResolveDeferred(ctx, []any{Resolved(1), 2, Resolved(3)})
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(1, 2, 3), elements)
}

func TestResolveDeferred_FailedFuture(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := ResolveDeferred(ctx, lazyPair{A: 1, B: Failed[int](boom)})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `contributor "B"`)

	_, err = ResolveAsync(ctx, lazyPair{A: 1, B: Failed[int](boom)}).Await(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestResolveDeferred_Cancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	never := Go(context.Background(), func(context.Context) (int, error) {
		<-block
		return 3, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveDeferred(ctx, lazyPair{A: 1, B: never})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveDeferred_RegisteredAccessors(t *testing.T) {
	ctx := context.Background()

	opts := NewOptions()
	require.NoError(t, RegisterSync[pair](opts, func(p pair) any { return p.A }))
	require.NoError(t, RegisterAsync[pair](opts, func(_ context.Context, p pair) (any, error) {
		return Resolved(p.B), nil
	}))

	s := New(opts)

	hash, err := s.ResolveDeferred(ctx, pair{A: 1, B: 3})
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(3), hash, "async registration wins in the deferred path")

	assert.Equal(t, hashcode.Combine(1), mustResolve(t, s, pair{A: 1, B: 3}), "sync path ignores async registrations")

	syncOnly := NewOptions()
	require.NoError(t, RegisterSync[pair](syncOnly, func(p pair) any { return p.B }))

	hash, err = New(syncOnly).ResolveDeferred(ctx, pair{A: 1, B: 3})
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(3), hash)
}

func TestResolveWithDeferred(t *testing.T) {
	ctx := context.Background()
	value := pair{A: 1, B: 3}

	hash, err := ResolveWithDeferred(ctx, nil, value,
		func(_ context.Context, p pair) (any, error) { return p.A, nil },
		func(_ context.Context, p pair) (any, error) { return Resolved(p.B), nil },
	)
	require.NoError(t, err)
	assert.Equal(t, mustResolve(t, Default(), value), hash)

	_, err = ResolveWithDeferred[pair](ctx, nil, value)
	assert.ErrorIs(t, err, ErrNoContributors)

	boom := errors.New("boom")
	_, err = ResolveWithDeferred(ctx, nil, value,
		func(_ context.Context, p pair) (any, error) { return nil, boom },
	)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "accessor #0")
}

func TestTypedHasher_Deferred(t *testing.T) {
	ctx := context.Background()
	h := NewTypedHasher[lazyPair](nil)

	hash, err := h.HashDeferred(ctx, lazyPair{A: 1, B: Resolved(3)})
	require.NoError(t, err)
	assert.Equal(t, hashcode.Combine(1, 3), hash)
}
