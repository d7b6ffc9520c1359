package hashcode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCode_Deterministic(t *testing.T) {
	for count := 0; count < 10; count++ {
		values := make([]int32, count)
		for i := range values {
			values[i] = int32(i*7919 + 1)
		}

		assert.Equal(t, Combine(values...), Combine(values...), "count %d", count)
	}
}

func TestHashCode_OrderSensitive(t *testing.T) {
	tests := []struct {
		name  string
		left  []int32
		right []int32
	}{
		{"pair", []int32{1, 3}, []int32{3, 1}},
		{"queued only", []int32{1, 2, 3}, []int32{3, 2, 1}},
		{"full round", []int32{1, 2, 3, 4}, []int32{4, 3, 2, 1}},
		{"round and queue", []int32{1, 2, 3, 4, 5, 6}, []int32{1, 2, 3, 4, 6, 5}},
		{"lane swap", []int32{1, 2, 3, 4, 5, 6, 7, 8}, []int32{5, 6, 7, 8, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Combine(tt.left...), Combine(tt.right...))
		})
	}
}

func TestHashCode_LengthMatters(t *testing.T) {
	assert.NotEqual(t, Combine(), Combine(0))
	assert.NotEqual(t, Combine(0), Combine(0, 0))
	assert.NotEqual(t, Combine(0, 0, 0), Combine(0, 0, 0, 0))
}

func TestHashCode_ToHashCodeDoesNotMutate(t *testing.T) {
	h := New()
	h.Add(10)
	h.Add(20)

	first := h.ToHashCode()
	assert.Equal(t, first, h.ToHashCode())
	assert.Equal(t, 2, h.Len())

	h.Add(30)
	assert.Equal(t, Combine(10, 20, 30), h.ToHashCode())
}

func TestHashCode_ZeroValueEqualsNew(t *testing.T) {
	var zero HashCode
	zero.Add(42)

	fresh := New()
	fresh.Add(42)

	assert.Equal(t, zero.ToHashCode(), fresh.ToHashCode())
}

func TestHashCode_Avalanche(t *testing.T) {
	// Flipping a single input bit should flip a fair share of output bits.
	base := uint32(Combine(1, 2, 3, 4, 5))
	flipped := uint32(Combine(1, 2, 3, 4, 4))

	diff := base ^ flipped
	count := 0
	for diff != 0 {
		count += int(diff & 1)
		diff >>= 1
	}

	assert.GreaterOrEqual(t, count, 6)
}

func TestHashCode_AddString(t *testing.T) {
	ab := New()
	ab.AddString("ab")

	aThenB := New()
	aThenB.AddString("a")
	aThenB.AddString("b")

	runes := New()
	runes.AddRune('a')
	runes.AddRune('b')

	assert.NotEqual(t, ab.ToHashCode(), aThenB.ToHashCode())
	assert.NotEqual(t, ab.ToHashCode(), runes.ToHashCode())
	assert.Equal(t, 3, ab.Len())

	empty := New()
	empty.AddString("")
	assert.Equal(t, 1, empty.Len())
	assert.Equal(t, String(""), empty.ToHashCode())
}

func TestInt(t *testing.T) {
	tests := []struct {
		name     string
		value    int32
		expected int32
	}{
		{"int8 negative", Int(int8(-4)), -4},
		{"int16 positive", Int(int16(256)), 256},
		{"int32 min", Int(int32(math.MinInt32)), math.MinInt32},
		{"int64 small", Int(int64(-1)), -1},
		{"int64 wide", Int(int64(1) << 40), Fold64(uint64(1) << 40)},
		{"uint8", Int(uint8(255)), 255},
		{"uint32 high", Int(uint32(math.MaxUint32)), Fold64(math.MaxUint32)},
		{"uint64 max", Int(uint64(math.MaxUint64)), Fold64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value)
		})
	}
}

func TestFloat(t *testing.T) {
	assert.Equal(t, Float64(0), Float64(math.Copysign(0, -1)))
	assert.Equal(t, Float64(math.NaN()), Float64(-math.NaN()))
	assert.NotEqual(t, Float64(1.5), Float64(2.5))
	assert.Equal(t, int32(0), Float32(0))
}

func TestBytes(t *testing.T) {
	assert.Equal(t, int32(0), Bytes(nil))
	assert.Equal(t, Bytes([]byte("abc")), Bytes([]byte("abc")))
	assert.NotEqual(t, Bytes([]byte("abc")), Bytes([]byte("acb")))
	assert.NotEqual(t, Bytes([]byte{}), Bytes(nil))
}

func TestHashCode_LanesWrapAround(t *testing.T) {
	h := New()
	for i := int32(0); i < 4; i++ {
		h.Add(i)
	}

	seed := uint64(Seed)
	mask := uint64(math.MaxUint32)

	fresh := &HashCode{}
	fresh.initialize()
	assert.Equal(t, uint32((seed+uint64(prime1)+uint64(prime2))&mask), fresh.v1)
	assert.Equal(t, uint32((seed+uint64(prime2))&mask), fresh.v2)
	assert.Equal(t, uint32(seed), fresh.v3)
	assert.Equal(t, uint32((seed-uint64(prime1))&mask), fresh.v4)

	assert.Equal(t, round(fresh.v1, 0), h.v1)
	assert.Equal(t, Combine(0, 1, 2, 3), h.ToHashCode())
}
