package witvalue

import "github.com/wippyai/wasm-rpc/value"

// NodeIndex is a position in a WitValue node sequence (node-index = s32 on the wire).
type NodeIndex int32

// Child is an optional node index.
type Child struct {
	Index   NodeIndex
	Present bool
}

// ChildAt returns a present child reference.
func ChildAt(i NodeIndex) Child { return Child{Index: i, Present: true} }

// NoChild is the absent child reference.
var NoChild = Child{}

// Get returns the index and whether it is present.
func (c Child) Get() (NodeIndex, bool) { return c.Index, c.Present }

// WitNode is one entry of a WitValue. Containers reference their children by
// position in the same sequence instead of holding them.
type WitNode interface {
	Kind() value.Kind
	isNode()
}

type RecordNode struct {
	Fields []NodeIndex
}

type VariantNode struct {
	Payload Child
	Case    uint32
}

type EnumNode struct {
	Case uint32
}

type FlagsNode struct {
	Bits []bool
}

type TupleNode struct {
	Items []NodeIndex
}

type ListNode struct {
	Items []NodeIndex
}

type OptionNode struct {
	Value Child
}

// ResultNode is the failure arm when Err is set.
type ResultNode struct {
	Value Child
	Err   bool
}

type PrimU8 uint8

type PrimU16 uint16

type PrimU32 uint32

type PrimU64 uint64

type PrimS8 int8

type PrimS16 int16

type PrimS32 int32

type PrimS64 int64

type PrimF32 float32

type PrimF64 float64

type PrimChar rune

type PrimBool bool

type PrimString string

func (RecordNode) Kind() value.Kind  { return value.KindRecord }
func (VariantNode) Kind() value.Kind { return value.KindVariant }
func (EnumNode) Kind() value.Kind    { return value.KindEnum }
func (FlagsNode) Kind() value.Kind   { return value.KindFlags }
func (TupleNode) Kind() value.Kind   { return value.KindTuple }
func (ListNode) Kind() value.Kind    { return value.KindList }
func (OptionNode) Kind() value.Kind  { return value.KindOption }
func (ResultNode) Kind() value.Kind  { return value.KindResult }
func (PrimU8) Kind() value.Kind      { return value.KindU8 }
func (PrimU16) Kind() value.Kind     { return value.KindU16 }
func (PrimU32) Kind() value.Kind     { return value.KindU32 }
func (PrimU64) Kind() value.Kind     { return value.KindU64 }
func (PrimS8) Kind() value.Kind      { return value.KindS8 }
func (PrimS16) Kind() value.Kind     { return value.KindS16 }
func (PrimS32) Kind() value.Kind     { return value.KindS32 }
func (PrimS64) Kind() value.Kind     { return value.KindS64 }
func (PrimF32) Kind() value.Kind     { return value.KindF32 }
func (PrimF64) Kind() value.Kind     { return value.KindF64 }
func (PrimChar) Kind() value.Kind    { return value.KindChar }
func (PrimBool) Kind() value.Kind    { return value.KindBool }
func (PrimString) Kind() value.Kind  { return value.KindString }

func (RecordNode) isNode()  {}
func (VariantNode) isNode() {}
func (EnumNode) isNode()    {}
func (FlagsNode) isNode()   {}
func (TupleNode) isNode()   {}
func (ListNode) isNode()    {}
func (OptionNode) isNode()  {}
func (ResultNode) isNode()  {}
func (PrimU8) isNode()      {}
func (PrimU16) isNode()     {}
func (PrimU32) isNode()     {}
func (PrimU64) isNode()     {}
func (PrimS8) isNode()      {}
func (PrimS16) isNode()     {}
func (PrimS32) isNode()     {}
func (PrimS64) isNode()     {}
func (PrimF32) isNode()     {}
func (PrimF64) isNode()     {}
func (PrimChar) isNode()    {}
func (PrimBool) isNode()    {}
func (PrimString) isNode()  {}

// known reports whether n is one of the node types above held by value. A
// pointer to a node type still satisfies WitNode but is not a valid entry.
func known(n WitNode) bool {
	switch n.(type) {
	case RecordNode, VariantNode, EnumNode, FlagsNode, TupleNode, ListNode, OptionNode, ResultNode,
		PrimU8, PrimU16, PrimU32, PrimU64, PrimS8, PrimS16, PrimS32, PrimS64,
		PrimF32, PrimF64, PrimChar, PrimBool, PrimString:
		return true
	}
	return false
}

// Children returns the indices referenced by n, in order.
func Children(n WitNode) []NodeIndex {
	switch x := n.(type) {
	case RecordNode:
		return x.Fields
	case TupleNode:
		return x.Items
	case ListNode:
		return x.Items
	case VariantNode:
		if x.Payload.Present {
			return []NodeIndex{x.Payload.Index}
		}
	case OptionNode:
		if x.Value.Present {
			return []NodeIndex{x.Value.Index}
		}
	case ResultNode:
		if x.Value.Present {
			return []NodeIndex{x.Value.Index}
		}
	}
	return nil
}

// WitValue is the flattened encoding of a Value. Nodes[0] is the root and
// every node precedes all of its descendants.
//
// A WitValue is immutable once built and safe for concurrent readers.
type WitValue struct {
	Nodes []WitNode
}

// Len returns the number of nodes.
func (w WitValue) Len() int { return len(w.Nodes) }

// Root returns the root node, or nil for an empty sequence.
func (w WitValue) Root() WitNode {
	if len(w.Nodes) == 0 {
		return nil
	}
	return w.Nodes[0]
}
