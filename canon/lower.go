package canon

import (
	"context"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	wasmrpc "github.com/wippyai/wasm-rpc"
	"github.com/wippyai/wasm-rpc/canon/internal/abi"
	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/witvalue"
)

// Allocation is one block obtained from the guest allocator.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// Lowered is a wit-value written to linear memory: the (ptr, len) pair of
// its node list and every block allocated to hold it.
type Lowered struct {
	Allocations []Allocation
	Ptr         uint32
	Len         uint32
}

// Flat returns the two i32 core values a wit-value parameter lowers to.
func (l Lowered) Flat() []uint64 {
	return []uint64{uint64(l.Ptr), uint64(l.Len)}
}

// Bytes returns the total size of all allocations.
func (l Lowered) Bytes() uint32 {
	var n uint32
	for _, a := range l.Allocations {
		n += a.Size
	}
	return n
}

// Free returns every allocation to the guest.
func (l Lowered) Free(allocator wasmrpc.Allocator) {
	if allocator == nil {
		return
	}
	for _, a := range l.Allocations {
		if a.Ptr != 0 {
			allocator.Free(a.Ptr, a.Size, a.Align)
		}
	}
}

// Lower writes w into linear memory as a golem wit-value.
//
// The node table is checked with witvalue.Validate first. Empty lists and
// strings are written as (0, 0) without calling the allocator. On failure
// every block allocated so far is freed.
func Lower(ctx context.Context, w witvalue.WitValue, mem wasmrpc.Memory, alloc wasmrpc.Allocator) (low Lowered, err error) {
	ctx, span := tracer.Start(ctx, "canon.Lower", trace.WithAttributes(
		attribute.Int("nodes", len(w.Nodes)),
	))
	defer span.End()

	l := lowerer{mem: mem, alloc: alloc, caps: abiCaps}
	defer func() {
		if err != nil {
			l.free()
			span.SetStatus(codes.Error, err.Error())
			Logger().Debug("lower failed", zap.Int("nodes", len(w.Nodes)), zap.Error(err))
		}
	}()

	if mem == nil || alloc == nil {
		return Lowered{}, errors.InvalidData(errors.PhaseLower, nil, "nil memory or allocator")
	}
	if err := witvalue.Validate(w, witvalue.Unlimited); err != nil {
		return Lowered{}, lowerError(err)
	}
	if len(w.Nodes) > l.caps.lists {
		return Lowered{}, errors.LimitExceeded(errors.PhaseLower, nil, "node count", l.caps.lists)
	}

	n := uint32(len(w.Nodes))
	size, ok := abi.SafeMulU32(n, nodeShape.size)
	if !ok {
		return Lowered{}, errors.Overflow(errors.PhaseLower, nil, "node array size overflows u32")
	}
	buf := make([]byte, size)
	for i, node := range w.Nodes {
		off := uint32(i) * nodeShape.size
		if err := l.node(buf[off:off+nodeShape.size], node, int32(i)); err != nil {
			return Lowered{}, err
		}
	}

	ptr, err := l.allocate(size, nodeShape.align)
	if err != nil {
		return Lowered{}, err
	}
	if err := l.write(ptr, buf); err != nil {
		return Lowered{}, err
	}

	low = Lowered{Allocations: l.allocs, Ptr: ptr, Len: n}
	measureLower(ctx, low.Bytes())
	span.SetAttributes(attribute.Int64("bytes", int64(low.Bytes())))
	return low, nil
}

// lowerError re-tags a validation failure as a lowering failure.
func lowerError(err error) error {
	e, ok := err.(*errors.Error)
	if !ok {
		return errors.Wrap(errors.PhaseLower, errors.KindInvalidData, err, "invalid node table")
	}
	return errors.New(errors.PhaseLower, e.Kind).
		Path(e.Path...).
		Detail("%s", e.Detail).
		Cause(err).
		Build()
}

// lowerCaps bounds the sizes a lowering may write.
type lowerCaps struct {
	strings int
	lists   int
	alloc   uint32
}

var abiCaps = lowerCaps{
	strings: abi.MaxStringSize,
	lists:   abi.MaxListLength,
	alloc:   abi.MaxAlloc,
}

type lowerer struct {
	mem    wasmrpc.Memory
	alloc  wasmrpc.Allocator
	allocs []Allocation
	caps   lowerCaps
}

func (l *lowerer) allocate(size, align uint32) (uint32, error) {
	if size > l.caps.alloc {
		return 0, errors.LimitExceeded(errors.PhaseLower, nil, "allocation size", int(l.caps.alloc))
	}
	ptr, err := l.alloc.Alloc(size, align)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseLower, size, align, err)
	}
	if ptr == 0 || !abi.IsAligned(ptr, align) {
		if ptr != 0 {
			l.alloc.Free(ptr, size, align)
		}
		return 0, errors.New(errors.PhaseLower, errors.KindAllocation).
			Detail("allocator returned unusable pointer %#x for %d bytes (align %d)", ptr, size, align).
			Value(ptr).
			Build()
	}
	l.allocs = append(l.allocs, Allocation{Ptr: ptr, Size: size, Align: align})
	return ptr, nil
}

func (l *lowerer) write(ptr uint32, data []byte) error {
	if err := l.mem.Write(ptr, data); err != nil {
		return errors.Wrap(errors.PhaseLower, errors.KindOutOfBounds, err, "memory write failed")
	}
	return nil
}

func (l *lowerer) free() {
	Lowered{Allocations: l.allocs}.Free(l.alloc)
	l.allocs = nil
}

// block allocates and fills a list or string body, returning its pointer.
func (l *lowerer) block(data []byte, align uint32) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if uint64(len(data)) > uint64(l.caps.alloc) {
		return 0, errors.LimitExceeded(errors.PhaseLower, nil, "allocation size", int(l.caps.alloc))
	}
	ptr, err := l.allocate(uint32(len(data)), align)
	if err != nil {
		return 0, err
	}
	return ptr, l.write(ptr, data)
}

func (l *lowerer) indices(items []witvalue.NodeIndex, pos int32) (ptr, n uint32, err error) {
	if len(items) > l.caps.lists {
		return 0, 0, errors.LimitExceeded(errors.PhaseLower, errors.NodePath(pos), "list length", l.caps.lists)
	}
	data := make([]byte, len(items)*int(nodeShape.indexSize))
	for i, idx := range items {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(idx))
	}
	ptr, err = l.block(data, nodeShape.indexAlign)
	return ptr, uint32(len(items)), err
}

func putOption(buf []byte, c witvalue.Child) {
	if idx, ok := c.Get(); ok {
		buf[0] = 1
		binary.LittleEndian.PutUint32(buf[nodeShape.optValue:], uint32(idx))
	}
}

func putList(buf []byte, ptr, n uint32) {
	binary.LittleEndian.PutUint32(buf[0:], ptr)
	binary.LittleEndian.PutUint32(buf[4:], n)
}

// node encodes one wit-node into buf, which is exactly one node long.
func (l *lowerer) node(buf []byte, node witvalue.WitNode, pos int32) error {
	p := buf[nodeShape.payload:]

	switch n := node.(type) {
	case witvalue.RecordNode:
		buf[0] = discRecord
		ptr, cnt, err := l.indices(n.Fields, pos)
		if err != nil {
			return err
		}
		putList(p, ptr, cnt)
	case witvalue.TupleNode:
		buf[0] = discTuple
		ptr, cnt, err := l.indices(n.Items, pos)
		if err != nil {
			return err
		}
		putList(p, ptr, cnt)
	case witvalue.ListNode:
		buf[0] = discList
		ptr, cnt, err := l.indices(n.Items, pos)
		if err != nil {
			return err
		}
		putList(p, ptr, cnt)

	case witvalue.VariantNode:
		buf[0] = discVariant
		binary.LittleEndian.PutUint32(buf[nodeShape.variantCase:], n.Case)
		putOption(buf[nodeShape.variantOpt:], n.Payload)
	case witvalue.EnumNode:
		buf[0] = discEnum
		binary.LittleEndian.PutUint32(p, n.Case)
	case witvalue.FlagsNode:
		buf[0] = discFlags
		if len(n.Bits) > l.caps.lists {
			return errors.LimitExceeded(errors.PhaseLower, errors.NodePath(pos), "flags count", l.caps.lists)
		}
		bits := make([]byte, len(n.Bits))
		for i, b := range n.Bits {
			if b {
				bits[i] = 1
			}
		}
		ptr, err := l.block(bits, 1)
		if err != nil {
			return err
		}
		putList(p, ptr, uint32(len(bits)))
	case witvalue.OptionNode:
		buf[0] = discOption
		putOption(p, n.Value)
	case witvalue.ResultNode:
		buf[0] = discResult
		if n.Err {
			p[0] = 1
		}
		putOption(buf[nodeShape.resultOpt:], n.Value)

	case witvalue.PrimU8:
		buf[0] = discU8
		p[0] = uint8(n)
	case witvalue.PrimU16:
		buf[0] = discU16
		binary.LittleEndian.PutUint16(p, uint16(n))
	case witvalue.PrimU32:
		buf[0] = discU32
		binary.LittleEndian.PutUint32(p, uint32(n))
	case witvalue.PrimU64:
		buf[0] = discU64
		binary.LittleEndian.PutUint64(p, uint64(n))
	case witvalue.PrimS8:
		buf[0] = discS8
		p[0] = uint8(n)
	case witvalue.PrimS16:
		buf[0] = discS16
		binary.LittleEndian.PutUint16(p, uint16(n))
	case witvalue.PrimS32:
		buf[0] = discS32
		binary.LittleEndian.PutUint32(p, uint32(n))
	case witvalue.PrimS64:
		buf[0] = discS64
		binary.LittleEndian.PutUint64(p, uint64(n))
	case witvalue.PrimF32:
		buf[0] = discF32
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(n)))
	case witvalue.PrimF64:
		buf[0] = discF64
		binary.LittleEndian.PutUint64(p, math.Float64bits(float64(n)))
	case witvalue.PrimChar:
		if !abi.ValidateChar(rune(n)) {
			return errors.New(errors.PhaseLower, errors.KindInvalidData).
				Path(errors.NodePath(pos)...).
				Detail("invalid Unicode scalar value: 0x%X", int32(n)).
				Value(rune(n)).
				Build()
		}
		buf[0] = discChar
		binary.LittleEndian.PutUint32(p, uint32(n))
	case witvalue.PrimBool:
		buf[0] = discBool
		if n {
			p[0] = 1
		}
	case witvalue.PrimString:
		if !utf8.ValidString(string(n)) {
			return errors.InvalidUTF8(errors.PhaseLower, errors.NodePath(pos), []byte(n))
		}
		if len(n) > l.caps.strings {
			return errors.LimitExceeded(errors.PhaseLower, errors.NodePath(pos), "string length", l.caps.strings)
		}
		ptr, err := l.block([]byte(n), 1)
		if err != nil {
			return err
		}
		putList(p, ptr, uint32(len(n)))

	default:
		return errors.InvalidData(errors.PhaseLower, errors.NodePath(pos), "unsupported node type")
	}
	return nil
}
