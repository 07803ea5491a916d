package witvalue

import (
	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/value"
)

// ToValue decodes w with DefaultLimits.
func ToValue(w WitValue) (value.Value, error) {
	return Decode(w, DefaultLimits)
}

// Decode reconstructs the Value rooted at node 0.
//
// Every index is bounds checked and must point past the node that holds it;
// violations are returned as *errors.Error naming the node path. No partial
// value is returned on failure.
func Decode(w WitValue, limits Limits) (value.Value, error) {
	if len(w.Nodes) == 0 {
		return nil, errors.Empty(errors.PhaseDecode)
	}
	if limits.nodesExceeded(len(w.Nodes)) {
		return nil, errors.LimitExceeded(errors.PhaseDecode, nil, "node count", limits.MaxNodes)
	}
	d := decoder{nodes: w.Nodes, limits: limits}
	return d.decode(0, 1)
}

func decodeAt(nodes []WitNode, idx NodeIndex, limits Limits) (value.Value, error) {
	if idx < 0 || int(idx) >= len(nodes) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, int(idx), len(nodes))
	}
	d := decoder{nodes: nodes, limits: limits}
	return d.decode(idx, 1)
}

type decoder struct {
	nodes   []WitNode
	limits  Limits
	path    []int32
	visited int
}

func (d *decoder) fail(err *errors.Error) error {
	err.Path = errors.NodePath(d.path...)
	return err
}

// child resolves a reference held by node parent.
func (d *decoder) child(parent, idx NodeIndex) error {
	if idx < 0 || int(idx) >= len(d.nodes) {
		return d.fail(errors.OutOfBounds(errors.PhaseDecode, nil, int(idx), len(d.nodes)))
	}
	if idx <= parent {
		return d.fail(errors.BackwardReference(errors.PhaseDecode, nil, int32(parent), int32(idx)))
	}
	return nil
}

func (d *decoder) decode(idx NodeIndex, depth int) (value.Value, error) {
	d.path = append(d.path, int32(idx))
	defer func() { d.path = d.path[:len(d.path)-1] }()

	if d.limits.depthExceeded(depth) {
		return nil, d.fail(errors.LimitExceeded(errors.PhaseDecode, nil, "nesting depth", d.limits.MaxDepth))
	}
	d.visited++
	if d.limits.nodesExceeded(d.visited) {
		return nil, d.fail(errors.LimitExceeded(errors.PhaseDecode, nil, "decoded node count", d.limits.MaxNodes))
	}

	switch n := d.nodes[idx].(type) {
	case RecordNode:
		fields, err := d.decodeSeq(idx, n.Fields, depth)
		if err != nil {
			return nil, err
		}
		return value.Record(fields), nil

	case TupleNode:
		items, err := d.decodeSeq(idx, n.Items, depth)
		if err != nil {
			return nil, err
		}
		return value.Tuple(items), nil

	case ListNode:
		items, err := d.decodeSeq(idx, n.Items, depth)
		if err != nil {
			return nil, err
		}
		return value.List(items), nil

	case VariantNode:
		payload, err := d.decodeChild(idx, n.Payload, depth)
		if err != nil {
			return nil, err
		}
		return value.Variant{Case: n.Case, Payload: payload}, nil

	case EnumNode:
		return value.Enum(n.Case), nil

	case FlagsNode:
		bits := make(value.Flags, len(n.Bits))
		copy(bits, n.Bits)
		return bits, nil

	case OptionNode:
		inner, err := d.decodeChild(idx, n.Value, depth)
		if err != nil {
			return nil, err
		}
		return value.Option{Value: inner}, nil

	case ResultNode:
		inner, err := d.decodeChild(idx, n.Value, depth)
		if err != nil {
			return nil, err
		}
		return value.Result{Err: n.Err, Value: inner}, nil

	case PrimU8:
		return value.U8(n), nil
	case PrimU16:
		return value.U16(n), nil
	case PrimU32:
		return value.U32(n), nil
	case PrimU64:
		return value.U64(n), nil
	case PrimS8:
		return value.S8(n), nil
	case PrimS16:
		return value.S16(n), nil
	case PrimS32:
		return value.S32(n), nil
	case PrimS64:
		return value.S64(n), nil
	case PrimF32:
		return value.F32(n), nil
	case PrimF64:
		return value.F64(n), nil
	case PrimChar:
		return value.Char(n), nil
	case PrimBool:
		return value.Bool(n), nil
	case PrimString:
		return value.String(n), nil

	case nil:
		return nil, d.fail(errors.InvalidData(errors.PhaseDecode, nil, "nil node"))

	default:
		return nil, d.fail(errors.InvalidData(errors.PhaseDecode, nil, "unsupported node type"))
	}
}

func (d *decoder) decodeSeq(parent NodeIndex, indices []NodeIndex, depth int) ([]value.Value, error) {
	out := make([]value.Value, 0, len(indices))
	for _, idx := range indices {
		if err := d.child(parent, idx); err != nil {
			return nil, err
		}
		v, err := d.decode(idx, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *decoder) decodeChild(parent NodeIndex, c Child, depth int) (value.Value, error) {
	idx, ok := c.Get()
	if !ok {
		return nil, nil
	}
	if err := d.child(parent, idx); err != nil {
		return nil, err
	}
	return d.decode(idx, depth+1)
}
