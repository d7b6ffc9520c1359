package hashcode

import "math/bits"

const (
	prime1 uint32 = 2654435761
	prime2 uint32 = 2246822519
	prime3 uint32 = 3266489917
	prime4 uint32 = 668265263
	prime5 uint32 = 374761393

	// Seed is fixed so that hashes are reproducible between runs of the process
	// and between processes running the same version.
	Seed uint32 = 1309273434

	// Multipliers applied to a lane input before rotation, they are the two's
	// complement of -2048144777 and -1028477379.
	roundMultiplier      uint32 = 2246822519
	queueRoundMultiplier uint32 = 3266489917
)

// HashCode is a streaming combiner of int32 inputs producing an order sensitive
// 32 bits hash. Every 4 inputs are rolled through 4 accumulator lanes, up to 3
// inputs stay queued until the next roll or until ToHashCode is called.
//
// The zero value is ready to use. A HashCode must not be shared between
// concurrent computations.
type HashCode struct {
	v1, v2, v3, v4         uint32
	queue1, queue2, queue3 uint32
	length                 uint32
}

func New() *HashCode {
	return &HashCode{}
}

// Combine feeds all values in order in a fresh HashCode and returns the
// finalized hash.
func Combine(values ...int32) int32 {
	var h HashCode
	for _, value := range values {
		h.Add(value)
	}

	return h.ToHashCode()
}

// Len returns the number of inputs added so far.
func (h *HashCode) Len() int {
	return int(h.length)
}

func (h *HashCode) Add(value int32) {
	position := h.length
	h.length++

	switch position % 4 {
	case 0:
		h.queue1 = uint32(value)
		return
	case 1:
		h.queue2 = uint32(value)
		return
	case 2:
		h.queue3 = uint32(value)
		return
	}

	if position == 3 {
		h.initialize()
	}

	h.v1 = round(h.v1, h.queue1)
	h.v2 = round(h.v2, h.queue2)
	h.v3 = round(h.v3, h.queue3)
	h.v4 = round(h.v4, uint32(value))
}

// ToHashCode finalizes the current state. It does not modify the receiver so
// more values can still be added afterwards.
func (h *HashCode) ToHashCode() int32 {
	length := h.length
	remainder := length % 4

	var hash uint32
	if length < 4 {
		hash = Seed + prime5
	} else {
		hash = mixState(h.v1, h.v2, h.v3, h.v4)
	}

	hash += length * 4

	if remainder > 0 {
		hash = queueRound(hash, h.queue1)
		if remainder > 1 {
			hash = queueRound(hash, h.queue2)
			if remainder > 2 {
				hash = queueRound(hash, h.queue3)
			}
		}
	}

	return int32(mixFinal(hash))
}

// The lanes start from the seed on the first full roll so the zero value of
// HashCode is usable.
func (h *HashCode) initialize() {
	// Wrapping arithmetic, it must happen at run time.
	seed := Seed
	h.v1 = seed + prime1 + prime2
	h.v2 = seed + prime2
	h.v3 = seed
	h.v4 = seed - prime1
}

func round(hash, input uint32) uint32 {
	return bits.RotateLeft32(hash+input*roundMultiplier, 13) * prime1
}

func queueRound(hash, queued uint32) uint32 {
	return bits.RotateLeft32(hash+queued*queueRoundMultiplier, 17) * prime4
}

func mixState(v1, v2, v3, v4 uint32) uint32 {
	return bits.RotateLeft32(v1, 1) + bits.RotateLeft32(v2, 7) + bits.RotateLeft32(v3, 12) + bits.RotateLeft32(v4, 18)
}

func mixFinal(hash uint32) uint32 {
	hash ^= hash >> 15
	hash *= prime2
	hash ^= hash >> 13
	hash *= prime3
	hash ^= hash >> 16

	return hash
}
