package witvalue

import (
	"github.com/wippyai/wasm-rpc/value"
)

// Pointer reads a WitValue in place without decoding it. Navigation off the
// end of the sequence, through a backward reference or into a node of the
// wrong kind yields an invalid Pointer; no accessor panics.
type Pointer struct {
	nodes []WitNode
	index NodeIndex
	ok    bool
}

// RootOf returns a pointer to node 0 of w.
func RootOf(w WitValue) Pointer {
	return at(w.Nodes, 0)
}

func at(nodes []WitNode, idx NodeIndex) Pointer {
	if idx < 0 || int(idx) >= len(nodes) || !known(nodes[idx]) {
		return Pointer{}
	}
	return Pointer{nodes: nodes, index: idx, ok: true}
}

// Valid reports whether p refers to a node.
func (p Pointer) Valid() bool { return p.ok }

// Index returns the node position, or -1 for an invalid pointer.
func (p Pointer) Index() NodeIndex {
	if !p.ok {
		return -1
	}
	return p.index
}

// Node returns the referenced node, or nil.
func (p Pointer) Node() WitNode {
	if !p.ok {
		return nil
	}
	return p.nodes[p.index]
}

// Kind returns the node kind. The second result is false for an invalid pointer.
func (p Pointer) Kind() (value.Kind, bool) {
	if !p.ok {
		return 0, false
	}
	return p.nodes[p.index].Kind(), true
}

func (p Pointer) follow(idx NodeIndex) Pointer {
	if idx <= p.index {
		return Pointer{}
	}
	return at(p.nodes, idx)
}

func (p Pointer) items() ([]NodeIndex, bool) {
	switch n := p.Node().(type) {
	case RecordNode:
		return n.Fields, true
	case TupleNode:
		return n.Items, true
	case ListNode:
		return n.Items, true
	}
	return nil, false
}

// Len returns the element count of a list, tuple or record, the bit count of
// flags, and 0 for anything else.
func (p Pointer) Len() int {
	if f, ok := p.Node().(FlagsNode); ok {
		return len(f.Bits)
	}
	items, _ := p.items()
	return len(items)
}

// Item returns element i of a list, tuple or record.
func (p Pointer) Item(i int) Pointer {
	items, ok := p.items()
	if !ok || i < 0 || i >= len(items) {
		return Pointer{}
	}
	return p.follow(items[i])
}

// Field is Item for records.
func (p Pointer) Field(i int) Pointer {
	if _, ok := p.Node().(RecordNode); !ok {
		return Pointer{}
	}
	return p.Item(i)
}

// Variant returns the case and payload pointer. The payload is invalid for a
// unit case.
func (p Pointer) Variant() (uint32, Pointer, bool) {
	n, ok := p.Node().(VariantNode)
	if !ok {
		return 0, Pointer{}, false
	}
	if idx, present := n.Payload.Get(); present {
		return n.Case, p.follow(idx), true
	}
	return n.Case, Pointer{}, true
}

// Option returns the payload pointer and whether the option is present.
func (p Pointer) Option() (Pointer, bool) {
	n, ok := p.Node().(OptionNode)
	if !ok {
		return Pointer{}, false
	}
	if idx, present := n.Value.Get(); present {
		return p.follow(idx), true
	}
	return Pointer{}, false
}

// Result returns the payload pointer and whether the result is the failure
// arm. The final result is false if p is not a result.
func (p Pointer) Result() (payload Pointer, isErr bool, ok bool) {
	n, ok := p.Node().(ResultNode)
	if !ok {
		return Pointer{}, false, false
	}
	if idx, present := n.Value.Get(); present {
		return p.follow(idx), n.Err, true
	}
	return Pointer{}, n.Err, true
}

func (p Pointer) Enum() (uint32, bool) {
	n, ok := p.Node().(EnumNode)
	return n.Case, ok
}

// Flags returns a copy of the bits.
func (p Pointer) Flags() ([]bool, bool) {
	n, ok := p.Node().(FlagsNode)
	if !ok {
		return nil, false
	}
	bits := make([]bool, len(n.Bits))
	copy(bits, n.Bits)
	return bits, true
}

func (p Pointer) Bool() (bool, bool) {
	n, ok := p.Node().(PrimBool)
	return bool(n), ok
}

func (p Pointer) U8() (uint8, bool) {
	n, ok := p.Node().(PrimU8)
	return uint8(n), ok
}

func (p Pointer) U16() (uint16, bool) {
	n, ok := p.Node().(PrimU16)
	return uint16(n), ok
}

func (p Pointer) U32() (uint32, bool) {
	n, ok := p.Node().(PrimU32)
	return uint32(n), ok
}

func (p Pointer) U64() (uint64, bool) {
	n, ok := p.Node().(PrimU64)
	return uint64(n), ok
}

func (p Pointer) S8() (int8, bool) {
	n, ok := p.Node().(PrimS8)
	return int8(n), ok
}

func (p Pointer) S16() (int16, bool) {
	n, ok := p.Node().(PrimS16)
	return int16(n), ok
}

func (p Pointer) S32() (int32, bool) {
	n, ok := p.Node().(PrimS32)
	return int32(n), ok
}

func (p Pointer) S64() (int64, bool) {
	n, ok := p.Node().(PrimS64)
	return int64(n), ok
}

func (p Pointer) F32() (float32, bool) {
	n, ok := p.Node().(PrimF32)
	return float32(n), ok
}

func (p Pointer) F64() (float64, bool) {
	n, ok := p.Node().(PrimF64)
	return float64(n), ok
}

func (p Pointer) Char() (rune, bool) {
	n, ok := p.Node().(PrimChar)
	return rune(n), ok
}

// StringValue returns the text of a string node.
func (p Pointer) StringValue() (string, bool) {
	n, ok := p.Node().(PrimString)
	return string(n), ok
}

// Value decodes the subtree rooted at p with DefaultLimits.
func (p Pointer) Value() (value.Value, error) {
	return decodeAt(p.nodes, p.index, DefaultLimits)
}
