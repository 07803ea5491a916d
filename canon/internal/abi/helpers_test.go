package abi

import (
	"math"
	"testing"
)

func TestSafeMulU32(t *testing.T) {
	tests := []struct {
		name   string
		a, b   uint32
		want   uint32
		wantOK bool
	}{
		{"zero * max", 0, math.MaxUint32, 0, true},
		{"node table", 1000, 24, 24000, true},
		{"max * one", math.MaxUint32, 1, math.MaxUint32, true},
		{"overflow", math.MaxUint32, 2, 0, false},
		{"edge case ok", 65536, 65535, 65536 * 65535, true},
		{"edge case overflow", 65536, 65537, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeMulU32(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Errorf("SafeMulU32(%d, %d) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("SafeMulU32(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSafeAddU32(t *testing.T) {
	if got, ok := SafeAddU32(math.MaxUint32-1, 1); !ok || got != math.MaxUint32 {
		t.Errorf("SafeAddU32 at edge = %d, %v", got, ok)
	}
	if _, ok := SafeAddU32(math.MaxUint32, 1); ok {
		t.Error("SafeAddU32 overflow not detected")
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 4, 12},
		{5, 1, 5},
		{5, 0, 5},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestIsAligned(t *testing.T) {
	if !IsAligned(16, 8) || IsAligned(12, 8) || !IsAligned(3, 1) {
		t.Error("IsAligned mismatch")
	}
}

func TestDiscriminantSize(t *testing.T) {
	tests := []struct {
		cases int
		want  uint32
	}{
		{2, 1},
		{21, 1},
		{256, 1},
		{257, 2},
		{65536, 2},
		{65537, 4},
	}
	for _, tt := range tests {
		if got := DiscriminantSize(tt.cases); got != tt.want {
			t.Errorf("DiscriminantSize(%d) = %d, want %d", tt.cases, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	if got := CanonicalizeF32(0x7fc00001); got != CanonicalNaN32 {
		t.Errorf("CanonicalizeF32(NaN) = %#x", got)
	}
	if got := CanonicalizeF32(0x3f800000); got != 0x3f800000 {
		t.Errorf("CanonicalizeF32(1.0) = %#x", got)
	}
	if got := CanonicalizeF64(0xfff0000000000001); got != CanonicalNaN64 {
		t.Errorf("CanonicalizeF64(NaN) = %#x", got)
	}
	if got := CanonicalizeF64(math.Float64bits(math.Inf(-1))); got != math.Float64bits(math.Inf(-1)) {
		t.Errorf("CanonicalizeF64(-Inf) = %#x", got)
	}
}

func TestValidateChar(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{0, true},
		{'a', true},
		{0xD7FF, true},
		{0xD800, false},
		{0xDFFF, false},
		{0xE000, true},
		{0x10FFFF, true},
		{0x110000, false},
		{-1, false},
	}
	for _, tt := range tests {
		if got := ValidateChar(tt.r); got != tt.want {
			t.Errorf("ValidateChar(%#x) = %v, want %v", tt.r, got, tt.want)
		}
	}
}
