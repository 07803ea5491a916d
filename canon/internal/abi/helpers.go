package abi

import (
	"math"
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// IsAligned reports whether ptr is a multiple of align.
func IsAligned(ptr, align uint32) bool {
	return align == 0 || ptr&(align-1) == 0
}

// DiscriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func DiscriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	} else if numCases <= 65536 {
		return 2
	}
	return 4
}

const (
	CanonicalNaN32 = 0x7fc00000
	CanonicalNaN64 = 0x7ff8000000000000
)

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
	MaxAlloc      = 1 << 30 // 1 GB max single allocation
)

// CanonicalizeF32 returns canonical NaN for any NaN input.
func CanonicalizeF32(bits uint32) uint32 {
	if math.IsNaN(float64(math.Float32frombits(bits))) {
		return CanonicalNaN32
	}
	return bits
}

// CanonicalizeF64 returns canonical NaN for any NaN input.
func CanonicalizeF64(bits uint64) uint64 {
	if math.IsNaN(math.Float64frombits(bits)) {
		return CanonicalNaN64
	}
	return bits
}

// ValidateChar rejects surrogates (0xD800-0xDFFF) and values >= 0x110000.
func ValidateChar(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	if r < 0 || r >= 0x110000 {
		return false
	}
	return true
}
