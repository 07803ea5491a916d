package canon

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wippyai/wasm-rpc/canon/internal/abi"
	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/internal/valuegen"
	"github.com/wippyai/wasm-rpc/value"
	"github.com/wippyai/wasm-rpc/witvalue"
)

func roundTrip(t *testing.T, v value.Value) {
	t.Helper()
	ctx := context.Background()
	mem := newMockMemory(1 << 20)
	alloc := newMockAllocator()

	w := witvalue.FromValue(v)
	low, err := Lower(ctx, w, mem, alloc)
	if err != nil {
		t.Fatalf("Lower(%s): %v", value.Format(v), err)
	}
	lifted, err := Lift(ctx, sizedMemory{mem}, low.Ptr, low.Len, witvalue.DefaultLimits)
	if err != nil {
		t.Fatalf("Lift(%s): %v", value.Format(v), err)
	}
	if diff := cmp.Diff(w, lifted, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("node table mismatch for %s (-want +got):\n%s", value.Format(v), diff)
	}
	got, err := witvalue.ToValue(lifted)
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	if !value.Equal(v, got) {
		t.Fatalf("got %s, want %s", value.Format(got), value.Format(v))
	}
}

func TestLift_RoundTripBoundary(t *testing.T) {
	for _, v := range valuegen.Boundary() {
		t.Run(value.Format(v), func(t *testing.T) {
			roundTrip(t, v)
		})
	}
}

func TestLift_RoundTripRandom(t *testing.T) {
	cfg := valuegen.DefaultConfig
	cfg.NoNaN = true
	for seed := range uint64(200) {
		roundTrip(t, valuegen.NewWithConfig(seed, cfg).Value())
	}
}

func TestLift_NegativeZeroBits(t *testing.T) {
	ctx := context.Background()
	mem := newMockMemory(4096)
	w := witvalue.FromValue(value.Tuple{value.F32(math.Copysign(0, -1)), value.F64(math.Copysign(0, -1))})
	low, err := Lower(ctx, w, mem, newMockAllocator())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	lifted, err := Lift(ctx, mem, low.Ptr, low.Len, witvalue.DefaultLimits)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if bits := math.Float32bits(float32(lifted.Nodes[1].(witvalue.PrimF32))); bits != 0x80000000 {
		t.Errorf("f32 bits = %#x", bits)
	}
	if bits := math.Float64bits(float64(lifted.Nodes[2].(witvalue.PrimF64))); bits != 0x8000000000000000 {
		t.Errorf("f64 bits = %#x", bits)
	}
}

const (
	nodeBase = 1024
	dataBase = 2048
)

// raw builds one node with disc and little-endian u32 fields given as
// (offset, value) pairs.
func raw(disc uint8, fields ...uint32) []byte {
	b := make([]byte, 24)
	b[0] = disc
	for i := 0; i+1 < len(fields); i += 2 {
		binary.LittleEndian.PutUint32(b[fields[i]:], fields[i+1])
	}
	return b
}

func writeNodes(mem *mockMemory, nodes ...[]byte) uint32 {
	for i, n := range nodes {
		copy(mem.data[nodeBase+i*24:], n)
	}
	return uint32(len(nodes))
}

func TestLift_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(m *mockMemory) (ptr, length uint32)
		limits witvalue.Limits
		kind   errors.Kind
		path   []string
	}{
		{
			name:  "empty",
			setup: func(m *mockMemory) (uint32, uint32) { return nodeBase, 0 },
			kind:  errors.KindEmpty,
		},
		{
			name: "node count over limit",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discU8), raw(discU8), raw(discU8))
			},
			limits: witvalue.Limits{MaxNodes: 2},
			kind:   errors.KindLimitExceeded,
		},
		{
			name:  "misaligned node array",
			setup: func(m *mockMemory) (uint32, uint32) { return nodeBase + 4, 1 },
			kind:  errors.KindInvalidData,
		},
		{
			name:  "node array past memory end",
			setup: func(m *mockMemory) (uint32, uint32) { return 4096 - 16, 1 },
			kind:  errors.KindOutOfBounds,
		},
		{
			name:  "node array end overflows",
			setup: func(m *mockMemory) (uint32, uint32) { return 0xFFFFFF00, 100 },
			kind:  errors.KindOverflow,
		},
		{
			name: "unknown node case",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(21))
			},
			kind: errors.KindInvalidVariant,
			path: []string{"node[0]"},
		},
		{
			name: "option tag",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discOption, 8, 2))
			},
			kind: errors.KindInvalidVariant,
		},
		{
			name: "variant payload tag",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discVariant, 8, 0, 12, 7))
			},
			kind: errors.KindInvalidVariant,
		},
		{
			name: "result tag",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discResult, 8, 2))
			},
			kind: errors.KindInvalidVariant,
		},
		{
			name: "bool byte",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discBool, 8, 2))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "flag byte",
			setup: func(m *mockMemory) (uint32, uint32) {
				copy(m.data[dataBase:], []byte{1, 0, 9})
				return nodeBase, writeNodes(m, raw(discFlags, 8, dataBase, 12, 3))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "surrogate char",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discChar, 8, 0xDC00))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "char above max",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discChar, 8, 0x80000000))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "invalid utf-8",
			setup: func(m *mockMemory) (uint32, uint32) {
				copy(m.data[dataBase:], []byte{'o', 'k', 0xC3})
				m.putU32(dataBase+16, 1)
				return nodeBase, writeNodes(m,
					raw(discTuple, 8, dataBase+16, 12, 1),
					raw(discString, 8, dataBase, 12, 3),
				)
			},
			kind: errors.KindInvalidUTF8,
			path: []string{"node[1]"},
		},
		{
			name: "string past memory end",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discString, 8, 4000, 12, 200))
			},
			kind: errors.KindOutOfBounds,
		},
		{
			name: "misaligned index list",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discList, 8, dataBase+1, 12, 1))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "list length over limit",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discList, 8, dataBase, 12, abi.MaxListLength+1))
			},
			kind: errors.KindLimitExceeded,
		},
		{
			name: "backward reference",
			setup: func(m *mockMemory) (uint32, uint32) {
				m.putU32(dataBase, 0)
				return nodeBase, writeNodes(m, raw(discList, 8, dataBase, 12, 1))
			},
			kind: errors.KindInvalidData,
		},
		{
			name: "index out of range",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m, raw(discOption, 8, 1, 12, 5))
			},
			kind: errors.KindOutOfBounds,
		},
		{
			name: "depth over limit",
			setup: func(m *mockMemory) (uint32, uint32) {
				return nodeBase, writeNodes(m,
					raw(discOption, 8, 1, 12, 1),
					raw(discOption, 8, 1, 12, 2),
					raw(discU8),
				)
			},
			limits: witvalue.Limits{MaxDepth: 2},
			kind:   errors.KindLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockMemory(4096)
			ptr, length := tt.setup(m)
			w, err := Lift(context.Background(), sizedMemory{m}, ptr, length, tt.limits)
			e := expectKind(t, err, errors.PhaseLift, tt.kind)
			if w.Nodes != nil {
				t.Error("partial result returned with error")
			}
			if tt.path != nil {
				if diff := cmp.Diff(tt.path, e.Path); diff != "" {
					t.Errorf("path mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestLift_UnsizedMemoryReadError(t *testing.T) {
	m := newMockMemory(256)
	_, err := Lift(context.Background(), m, 248, 4, witvalue.Unlimited)
	e := expectKind(t, err, errors.PhaseLift, errors.KindOutOfBounds)
	if e.Cause == nil {
		t.Error("memory error not kept as cause")
	}
}

func TestLift_NilMemory(t *testing.T) {
	_, err := Lift(context.Background(), nil, nodeBase, 1, witvalue.Unlimited)
	expectKind(t, err, errors.PhaseLift, errors.KindInvalidData)
}

func TestLift_CanonicalizesNaN(t *testing.T) {
	m := newMockMemory(4096)
	m.putU32(dataBase, 1)
	m.putU32(dataBase+4, 2)
	n := writeNodes(m,
		raw(discTuple, 8, dataBase, 12, 2),
		raw(discF32, 8, 0x7fc00001),
		raw(discF64, 8, 0x00000001, 12, 0xfff80000),
	)

	w, err := Lift(context.Background(), m, nodeBase, n, witvalue.DefaultLimits)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if bits := math.Float32bits(float32(w.Nodes[1].(witvalue.PrimF32))); bits != abi.CanonicalNaN32 {
		t.Errorf("f32 bits = %#x, want %#x", bits, abi.CanonicalNaN32)
	}
	if bits := math.Float64bits(float64(w.Nodes[2].(witvalue.PrimF64))); bits != abi.CanonicalNaN64 {
		t.Errorf("f64 bits = %#x, want %#x", bits, uint64(abi.CanonicalNaN64))
	}
}

func TestLift_DoesNotAliasMemory(t *testing.T) {
	ctx := context.Background()
	m := newMockMemory(4096)
	low, err := Lower(ctx, witvalue.FromValue(value.Tuple{
		value.String("stable"),
		value.Flags{true, false, true},
		value.List{value.U8(1)},
	}), m, newMockAllocator())
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	w, err := Lift(ctx, m, low.Ptr, low.Len, witvalue.DefaultLimits)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	before, err := witvalue.ToValue(w)
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}

	for i := range m.data {
		m.data[i] = 0
	}

	after, err := witvalue.ToValue(w)
	if err != nil {
		t.Fatalf("ToValue after clearing memory: %v", err)
	}
	if !value.Equal(before, after) {
		t.Errorf("lifted value changed with memory: %s -> %s", value.Format(before), value.Format(after))
	}
}

func TestLift_IgnoresPaddingBytes(t *testing.T) {
	m := newMockMemory(4096)
	node := raw(discU16, 8, 0xBEEF)
	for i := 1; i < 8; i++ {
		node[i] = 0xAA
	}
	for i := 10; i < 24; i++ {
		node[i] = 0x55
	}
	w, err := Lift(context.Background(), m, nodeBase, writeNodes(m, node), witvalue.DefaultLimits)
	if err != nil {
		t.Fatalf("Lift: %v", err)
	}
	if diff := cmp.Diff([]witvalue.WitNode{witvalue.PrimU16(0xBEEF)}, w.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}
