package hashcode

import (
	"math"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/constraints"
)

// AddRune widens the rune so that its bits cover both halves of the input,
// characters never overlap with small integers that way.
func (h *HashCode) AddRune(r rune) {
	h.Add(int32(uint32(r) | uint32(r)<<16))
}

// AddString contributes every rune of s followed by a NUL terminator, so "ab"
// followed by "c" mixes differently than "a" followed by "bc".
func (h *HashCode) AddString(s string) {
	for _, r := range s {
		h.AddRune(r)
	}

	h.AddRune(0)
}

func (h *HashCode) AddBool(b bool) {
	if b {
		h.Add(1)
		return
	}

	h.Add(0)
}

// AddInt contributes the native integer representation of value. Integers wider
// than 32 bits are folded.
func AddInt[T constraints.Integer](h *HashCode, value T) {
	h.Add(Int(value))
}

// Int returns the int32 representation of an integer used as Mixer input.
// Values fitting in an int32 are used as is, others are folded.
func Int[T constraints.Integer](value T) int32 {
	wide := int64(value)
	if (wide >= 0) == (value >= 0) && wide >= math.MinInt32 && wide <= math.MaxInt32 {
		return int32(wide)
	}

	return Fold64(uint64(value))
}

func (h *HashCode) AddFloat64(f float64) {
	h.Add(Float64(f))
}

func (h *HashCode) AddFloat32(f float32) {
	h.Add(Float32(f))
}

func (h *HashCode) AddComplex128(c complex128) {
	h.Add(Float64(real(c)) ^ int32(bitsRotate(uint32(Float64(imag(c))))))
}

// AddBytes contributes a single input derived from the content of b. Byte
// slices are treated like binary strings, not like a sequence of values.
func (h *HashCode) AddBytes(b []byte) {
	h.Add(Bytes(b))
}

func Bytes(b []byte) int32 {
	if b == nil {
		return 0
	}

	return Fold64(xxh3.Hash(b))
}

// Float64 returns the hash input of f. Both zeros hash the same and every NaN
// hashes the same.
func Float64(f float64) int32 {
	if f == 0 {
		return 0
	}
	if math.IsNaN(f) {
		f = math.NaN()
	}

	return Fold64(math.Float64bits(f))
}

func Float32(f float32) int32 {
	if f == 0 {
		return 0
	}
	if f != f {
		f = float32(math.NaN())
	}

	return int32(math.Float32bits(f))
}

// String returns the finalized hash of s alone.
func String(s string) int32 {
	var h HashCode
	h.AddString(s)

	return h.ToHashCode()
}

// Fold64 xors the high and low halves of value.
func Fold64(value uint64) int32 {
	return int32(uint32(value) ^ uint32(value>>32))
}

func bitsRotate(value uint32) uint32 {
	return value<<16 | value>>16
}
