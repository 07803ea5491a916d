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

// Lift reads a golem wit-value of length nodes at ptr.
//
// Every byte read is bounds-checked, discriminants and flag bytes are
// checked, chars must be Unicode scalar values and strings valid UTF-8.
// NaN payloads are canonicalized. The result is validated with limits before
// it is returned and never aliases guest memory.
func Lift(ctx context.Context, mem wasmrpc.Memory, ptr, length uint32, limits witvalue.Limits) (w witvalue.WitValue, err error) {
	ctx, span := tracer.Start(ctx, "canon.Lift", trace.WithAttributes(
		attribute.Int64("ptr", int64(ptr)),
		attribute.Int64("nodes", int64(length)),
	))
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			measureLiftFailure(ctx, err)
			Logger().Debug("lift failed",
				zap.Uint32("ptr", ptr),
				zap.Uint32("nodes", length),
				zap.Error(err),
			)
		}
	}()

	if mem == nil {
		return witvalue.WitValue{}, errors.InvalidData(errors.PhaseLift, nil, "nil memory")
	}
	if length == 0 {
		return witvalue.WitValue{}, errors.Empty(errors.PhaseLift)
	}
	if limits.MaxNodes > 0 && uint64(length) > uint64(limits.MaxNodes) {
		return witvalue.WitValue{}, errors.LimitExceeded(errors.PhaseLift, nil, "node count", limits.MaxNodes)
	}
	if length > abi.MaxListLength {
		return witvalue.WitValue{}, errors.LimitExceeded(errors.PhaseLift, nil, "node count", abi.MaxListLength)
	}

	r := lifter{mem: mem}
	if s, ok := mem.(wasmrpc.MemorySizer); ok {
		r.size = s.Size()
		r.sized = true
	}

	if !abi.IsAligned(ptr, nodeShape.align) {
		return witvalue.WitValue{}, errors.New(errors.PhaseLift, errors.KindInvalidData).
			Detail("node array pointer %#x not aligned to %d", ptr, nodeShape.align).
			Value(ptr).
			Build()
	}
	buf, err := r.read(ptr, length, nodeShape.size, nil)
	if err != nil {
		return witvalue.WitValue{}, err
	}

	nodes := make([]witvalue.WitNode, length)
	for i := range nodes {
		off := uint32(i) * nodeShape.size
		n, err := r.node(buf[off:off+nodeShape.size], int32(i))
		if err != nil {
			return witvalue.WitValue{}, err
		}
		nodes[i] = n
	}

	w = witvalue.WitValue{Nodes: nodes}
	if err := witvalue.Validate(w, limits); err != nil {
		return witvalue.WitValue{}, liftError(err)
	}
	return w, nil
}

func liftError(err error) error {
	e, ok := err.(*errors.Error)
	if !ok {
		return errors.Wrap(errors.PhaseLift, errors.KindInvalidData, err, "invalid node table")
	}
	return errors.New(errors.PhaseLift, e.Kind).
		Path(e.Path...).
		Detail("%s", e.Detail).
		Value(e.Value).
		Cause(err).
		Build()
}

type lifter struct {
	mem   wasmrpc.Memory
	size  uint32
	sized bool
}

// read returns count elements of elemSize bytes at ptr. The returned slice
// may alias guest memory.
func (r *lifter) read(ptr, count, elemSize uint32, path []string) ([]byte, error) {
	n, ok := abi.SafeMulU32(count, elemSize)
	if !ok {
		return nil, errors.Overflow(errors.PhaseLift, path, "list byte size overflows u32")
	}
	end, ok := abi.SafeAddU32(ptr, n)
	if !ok {
		return nil, errors.Overflow(errors.PhaseLift, path, "list end overflows u32")
	}
	if r.sized && end > r.size {
		return nil, errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).
			Detail("range [%#x, %#x) exceeds memory size %d", ptr, end, r.size).
			Value(end).
			Build()
	}
	if n == 0 {
		return nil, nil
	}
	data, err := r.mem.Read(ptr, n)
	if err != nil {
		return nil, errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).
			Detail("memory read of %d bytes at %#x failed", n, ptr).
			Cause(err).
			Build()
	}
	if uint32(len(data)) != n {
		return nil, errors.New(errors.PhaseLift, errors.KindOutOfBounds).
			Path(path...).
			Detail("short memory read: got %d of %d bytes", len(data), n).
			Build()
	}
	return data, nil
}

func (r *lifter) list(p []byte, elemSize, align uint32, path []string) ([]byte, uint32, error) {
	ptr := binary.LittleEndian.Uint32(p)
	n := binary.LittleEndian.Uint32(p[4:])
	if n > abi.MaxListLength {
		return nil, 0, errors.LimitExceeded(errors.PhaseLift, path, "list length", abi.MaxListLength)
	}
	if n > 0 && !abi.IsAligned(ptr, align) {
		return nil, 0, errors.New(errors.PhaseLift, errors.KindInvalidData).
			Path(path...).
			Detail("list pointer %#x not aligned to %d", ptr, align).
			Value(ptr).
			Build()
	}
	data, err := r.read(ptr, n, elemSize, path)
	return data, n, err
}

func (r *lifter) indices(p []byte, path []string) ([]witvalue.NodeIndex, error) {
	data, n, err := r.list(p, nodeShape.indexSize, nodeShape.indexAlign, path)
	if err != nil {
		return nil, err
	}
	out := make([]witvalue.NodeIndex, n)
	for i := range out {
		out[i] = witvalue.NodeIndex(int32(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return out, nil
}

func option(p []byte, path []string) (witvalue.Child, error) {
	switch p[0] {
	case 0:
		return witvalue.NoChild, nil
	case 1:
		idx := int32(binary.LittleEndian.Uint32(p[nodeShape.optValue:]))
		return witvalue.ChildAt(witvalue.NodeIndex(idx)), nil
	default:
		return witvalue.Child{}, errors.InvalidDiscriminant(errors.PhaseLift, path, uint32(p[0]), 1)
	}
}

func flag(b byte, path []string) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.New(errors.PhaseLift, errors.KindInvalidData).
			Path(path...).
			Detail("invalid bool byte %d", b).
			Value(b).
			Build()
	}
}

// node decodes one wit-node from buf, which is exactly one node long.
func (r *lifter) node(buf []byte, pos int32) (witvalue.WitNode, error) {
	path := errors.NodePath(pos)
	p := buf[nodeShape.payload:]

	switch buf[0] {
	case discRecord:
		items, err := r.indices(p, path)
		if err != nil {
			return nil, err
		}
		return witvalue.RecordNode{Fields: items}, nil
	case discTuple:
		items, err := r.indices(p, path)
		if err != nil {
			return nil, err
		}
		return witvalue.TupleNode{Items: items}, nil
	case discList:
		items, err := r.indices(p, path)
		if err != nil {
			return nil, err
		}
		return witvalue.ListNode{Items: items}, nil

	case discVariant:
		payload, err := option(buf[nodeShape.variantOpt:], path)
		if err != nil {
			return nil, err
		}
		return witvalue.VariantNode{
			Case:    binary.LittleEndian.Uint32(buf[nodeShape.variantCase:]),
			Payload: payload,
		}, nil
	case discEnum:
		return witvalue.EnumNode{Case: binary.LittleEndian.Uint32(p)}, nil
	case discFlags:
		data, n, err := r.list(p, 1, 1, path)
		if err != nil {
			return nil, err
		}
		bits := make([]bool, n)
		for i := range bits {
			if bits[i], err = flag(data[i], path); err != nil {
				return nil, err
			}
		}
		return witvalue.FlagsNode{Bits: bits}, nil
	case discOption:
		c, err := option(p, path)
		if err != nil {
			return nil, err
		}
		return witvalue.OptionNode{Value: c}, nil
	case discResult:
		if p[0] > 1 {
			return nil, errors.InvalidDiscriminant(errors.PhaseLift, path, uint32(p[0]), 1)
		}
		c, err := option(buf[nodeShape.resultOpt:], path)
		if err != nil {
			return nil, err
		}
		return witvalue.ResultNode{Err: p[0] == 1, Value: c}, nil

	case discU8:
		return witvalue.PrimU8(p[0]), nil
	case discU16:
		return witvalue.PrimU16(binary.LittleEndian.Uint16(p)), nil
	case discU32:
		return witvalue.PrimU32(binary.LittleEndian.Uint32(p)), nil
	case discU64:
		return witvalue.PrimU64(binary.LittleEndian.Uint64(p)), nil
	case discS8:
		return witvalue.PrimS8(int8(p[0])), nil
	case discS16:
		return witvalue.PrimS16(int16(binary.LittleEndian.Uint16(p))), nil
	case discS32:
		return witvalue.PrimS32(int32(binary.LittleEndian.Uint32(p))), nil
	case discS64:
		return witvalue.PrimS64(int64(binary.LittleEndian.Uint64(p))), nil
	case discF32:
		bits := abi.CanonicalizeF32(binary.LittleEndian.Uint32(p))
		return witvalue.PrimF32(math.Float32frombits(bits)), nil
	case discF64:
		bits := abi.CanonicalizeF64(binary.LittleEndian.Uint64(p))
		return witvalue.PrimF64(math.Float64frombits(bits)), nil
	case discChar:
		c := binary.LittleEndian.Uint32(p)
		if c > math.MaxInt32 || !abi.ValidateChar(rune(c)) {
			return nil, errors.New(errors.PhaseLift, errors.KindInvalidData).
				Path(path...).
				Detail("invalid Unicode scalar value: 0x%X", c).
				Value(c).
				Build()
		}
		return witvalue.PrimChar(rune(c)), nil
	case discBool:
		b, err := flag(p[0], path)
		if err != nil {
			return nil, err
		}
		return witvalue.PrimBool(b), nil
	case discString:
		data, n, err := r.list(p, 1, 1, path)
		if err != nil {
			return nil, err
		}
		if n > abi.MaxStringSize {
			return nil, errors.LimitExceeded(errors.PhaseLift, path, "string size", abi.MaxStringSize)
		}
		if !utf8.Valid(data) {
			return nil, errors.InvalidUTF8(errors.PhaseLift, path, data)
		}
		return witvalue.PrimString(string(data)), nil

	default:
		return nil, errors.InvalidDiscriminant(errors.PhaseLift, path, uint32(buf[0]), uint32(nodeCases-1))
	}
}
