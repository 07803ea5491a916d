package witvalue

import (
	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/value"
)

// FromValue encodes v without limits. The root is always node 0.
//
// A well-formed value always encodes; FromValue panics only when v or one of
// its children is nil.
func FromValue(v value.Value) WitValue {
	w, err := Encode(v, Unlimited)
	if err != nil {
		panic(err)
	}
	return w
}

// Encode flattens v into a WitValue, enforcing limits.
func Encode(v value.Value, limits Limits) (WitValue, error) {
	if v == nil {
		return WitValue{}, errors.InvalidData(errors.PhaseEncode, nil, "nil value")
	}
	e := encoder{
		b:      NewBuilderSize(initialCapacity(v, limits)),
		limits: limits,
	}
	if _, err := e.encode(v, 1); err != nil {
		return WitValue{}, err
	}
	return e.b.Build(), nil
}

// initialCapacity sizes the builder from the top level only, so a deep value
// never costs an extra traversal.
func initialCapacity(v value.Value, limits Limits) int {
	n := 1 + len(value.Children(v))
	if limits.MaxNodes > 0 && n > limits.MaxNodes {
		n = limits.MaxNodes
	}
	return n
}

type encoder struct {
	b      *Builder
	limits Limits
	path   []int32
}

func (e *encoder) fail(err *errors.Error) error {
	err.Path = errors.NodePath(e.path...)
	return err
}

func (e *encoder) encode(v value.Value, depth int) (NodeIndex, error) {
	if e.limits.depthExceeded(depth) {
		return 0, e.fail(errors.LimitExceeded(errors.PhaseEncode, nil, "nesting depth", e.limits.MaxDepth))
	}
	if e.limits.nodesExceeded(e.b.Len() + 1) {
		return 0, e.fail(errors.LimitExceeded(errors.PhaseEncode, nil, "node count", e.limits.MaxNodes))
	}

	switch x := v.(type) {
	case value.Bool:
		return e.b.AddBool(bool(x)), nil
	case value.U8:
		return e.b.AddU8(uint8(x)), nil
	case value.U16:
		return e.b.AddU16(uint16(x)), nil
	case value.U32:
		return e.b.AddU32(uint32(x)), nil
	case value.U64:
		return e.b.AddU64(uint64(x)), nil
	case value.S8:
		return e.b.AddS8(int8(x)), nil
	case value.S16:
		return e.b.AddS16(int16(x)), nil
	case value.S32:
		return e.b.AddS32(int32(x)), nil
	case value.S64:
		return e.b.AddS64(int64(x)), nil
	case value.F32:
		return e.b.AddF32(float32(x)), nil
	case value.F64:
		return e.b.AddF64(float64(x)), nil
	case value.Char:
		return e.b.AddChar(rune(x)), nil
	case value.String:
		return e.b.AddString(string(x)), nil

	case value.List:
		return e.encodeSeq(e.b.AddList(), x, depth)
	case value.Tuple:
		return e.encodeSeq(e.b.AddTuple(), x, depth)
	case value.Record:
		return e.encodeSeq(e.b.AddRecord(), x, depth)

	case value.Variant:
		if x.Payload == nil {
			return e.b.AddVariantUnit(x.Case), nil
		}
		return e.encodeChild(e.b.AddVariant(x.Case), x.Payload, depth)

	case value.Enum:
		return e.b.AddEnum(uint32(x)), nil

	case value.Flags:
		return e.b.AddFlags(x), nil

	case value.Option:
		if x.Value == nil {
			return e.b.AddOptionNone(), nil
		}
		return e.encodeChild(e.b.AddOptionSome(), x.Value, depth)

	case value.Result:
		switch {
		case x.Err && x.Value == nil:
			return e.b.AddResultErrUnit(), nil
		case x.Err:
			return e.encodeChild(e.b.AddResultErr(), x.Value, depth)
		case x.Value == nil:
			return e.b.AddResultOkUnit(), nil
		default:
			return e.encodeChild(e.b.AddResultOk(), x.Value, depth)
		}

	case nil:
		return 0, e.fail(errors.InvalidData(errors.PhaseEncode, nil, "nil value"))

	default:
		return 0, e.fail(errors.InvalidData(errors.PhaseEncode, nil, "unsupported value type"))
	}
}

func (e *encoder) encodeSeq(container NodeIndex, items []value.Value, depth int) (NodeIndex, error) {
	e.path = append(e.path, int32(container))
	children := make([]NodeIndex, 0, len(items))
	for _, item := range items {
		idx, err := e.encode(item, depth+1)
		if err != nil {
			return 0, err
		}
		children = append(children, idx)
	}
	e.path = e.path[:len(e.path)-1]

	e.b.FinishSeq(children, container)
	return container, nil
}

func (e *encoder) encodeChild(container NodeIndex, child value.Value, depth int) (NodeIndex, error) {
	e.path = append(e.path, int32(container))
	idx, err := e.encode(child, depth+1)
	if err != nil {
		return 0, err
	}
	e.path = e.path[:len(e.path)-1]

	e.b.FinishChild(idx, container)
	return container, nil
}
