package witvalue

import (
	"github.com/wippyai/wasm-rpc/errors"
)

type slot uint8

const (
	slotDone slot = iota
	slotSeq
	slotChild
)

// Builder appends nodes to a WitValue under construction.
//
// Containers are reserved before their children exist and finished once the
// children's positions are known. Misuse is a programming error and panics
// with an *errors.Error of kind contract. A Builder is owned by a single
// goroutine and is consumed by Build.
type Builder struct {
	nodes []WitNode
	slots []slot
	open  int
	built bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderSize returns an empty builder with room for n nodes.
func NewBuilderSize(n int) *Builder {
	return &Builder{
		nodes: make([]WitNode, 0, n),
		slots: make([]slot, 0, n),
	}
}

// Len returns the number of nodes appended so far.
func (b *Builder) Len() int { return len(b.nodes) }

func (b *Builder) push(n WitNode, s slot) NodeIndex {
	if b.built {
		panic(errors.Contract("builder used after Build"))
	}
	idx := NodeIndex(len(b.nodes))
	b.nodes = append(b.nodes, n)
	b.slots = append(b.slots, s)
	if s != slotDone {
		b.open++
	}
	return idx
}

func (b *Builder) AddBool(v bool) NodeIndex     { return b.push(PrimBool(v), slotDone) }
func (b *Builder) AddU8(v uint8) NodeIndex      { return b.push(PrimU8(v), slotDone) }
func (b *Builder) AddU16(v uint16) NodeIndex    { return b.push(PrimU16(v), slotDone) }
func (b *Builder) AddU32(v uint32) NodeIndex    { return b.push(PrimU32(v), slotDone) }
func (b *Builder) AddU64(v uint64) NodeIndex    { return b.push(PrimU64(v), slotDone) }
func (b *Builder) AddS8(v int8) NodeIndex       { return b.push(PrimS8(v), slotDone) }
func (b *Builder) AddS16(v int16) NodeIndex     { return b.push(PrimS16(v), slotDone) }
func (b *Builder) AddS32(v int32) NodeIndex     { return b.push(PrimS32(v), slotDone) }
func (b *Builder) AddS64(v int64) NodeIndex     { return b.push(PrimS64(v), slotDone) }
func (b *Builder) AddF32(v float32) NodeIndex   { return b.push(PrimF32(v), slotDone) }
func (b *Builder) AddF64(v float64) NodeIndex   { return b.push(PrimF64(v), slotDone) }
func (b *Builder) AddChar(v rune) NodeIndex     { return b.push(PrimChar(v), slotDone) }
func (b *Builder) AddString(v string) NodeIndex { return b.push(PrimString(v), slotDone) }
func (b *Builder) AddEnum(c uint32) NodeIndex   { return b.push(EnumNode{Case: c}, slotDone) }
func (b *Builder) AddVariantUnit(c uint32) NodeIndex {
	return b.push(VariantNode{Case: c}, slotDone)
}

// AddFlags appends a flags node. The bits are copied.
func (b *Builder) AddFlags(bits []bool) NodeIndex {
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return b.push(FlagsNode{Bits: cp}, slotDone)
}

func (b *Builder) AddOptionNone() NodeIndex    { return b.push(OptionNode{}, slotDone) }
func (b *Builder) AddResultOkUnit() NodeIndex  { return b.push(ResultNode{}, slotDone) }
func (b *Builder) AddResultErrUnit() NodeIndex { return b.push(ResultNode{Err: true}, slotDone) }

// AddList reserves a list node; finish it with FinishSeq.
func (b *Builder) AddList() NodeIndex { return b.push(ListNode{}, slotSeq) }

// AddTuple reserves a tuple node; finish it with FinishSeq.
func (b *Builder) AddTuple() NodeIndex { return b.push(TupleNode{}, slotSeq) }

// AddRecord reserves a record node; finish it with FinishSeq.
func (b *Builder) AddRecord() NodeIndex { return b.push(RecordNode{}, slotSeq) }

// AddVariant reserves a variant node with a payload; finish it with FinishChild.
func (b *Builder) AddVariant(c uint32) NodeIndex {
	return b.push(VariantNode{Case: c}, slotChild)
}

// AddOptionSome reserves a present option; finish it with FinishChild.
func (b *Builder) AddOptionSome() NodeIndex { return b.push(OptionNode{}, slotChild) }

// AddResultOk reserves a success result with payload; finish it with FinishChild.
func (b *Builder) AddResultOk() NodeIndex { return b.push(ResultNode{}, slotChild) }

// AddResultErr reserves a failure result with payload; finish it with FinishChild.
func (b *Builder) AddResultErr() NodeIndex { return b.push(ResultNode{Err: true}, slotChild) }

func (b *Builder) reserved(container NodeIndex, want slot) {
	if b.built {
		panic(errors.Contract("builder used after Build"))
	}
	if container < 0 || int(container) >= len(b.nodes) {
		panic(errors.Contract("finish of unknown node %d (length %d)", container, len(b.nodes)))
	}
	switch b.slots[container] {
	case want:
		return
	case slotDone:
		panic(errors.Contract("node %d (%s) is not awaiting children", container, b.nodes[container].Kind()))
	default:
		panic(errors.Contract("node %d (%s) finished with the wrong operation", container, b.nodes[container].Kind()))
	}
}

func (b *Builder) checkChild(child, container NodeIndex) {
	if child <= container || int(child) >= len(b.nodes) {
		panic(errors.Contract("child %d of node %d is not a later node (length %d)", child, container, len(b.nodes)))
	}
}

// FinishChild installs the single child of a container reserved by AddVariant,
// AddOptionSome, AddResultOk or AddResultErr.
func (b *Builder) FinishChild(child, container NodeIndex) {
	b.reserved(container, slotChild)
	b.checkChild(child, container)

	switch n := b.nodes[container].(type) {
	case VariantNode:
		n.Payload = ChildAt(child)
		b.nodes[container] = n
	case OptionNode:
		n.Value = ChildAt(child)
		b.nodes[container] = n
	case ResultNode:
		n.Value = ChildAt(child)
		b.nodes[container] = n
	}
	b.slots[container] = slotDone
	b.open--
}

// FinishSeq installs the ordered children of a container reserved by AddList,
// AddTuple or AddRecord. The slice is copied.
func (b *Builder) FinishSeq(children []NodeIndex, container NodeIndex) {
	b.reserved(container, slotSeq)
	for _, child := range children {
		b.checkChild(child, container)
	}

	items := make([]NodeIndex, len(children))
	copy(items, children)

	switch b.nodes[container].(type) {
	case ListNode:
		b.nodes[container] = ListNode{Items: items}
	case TupleNode:
		b.nodes[container] = TupleNode{Items: items}
	case RecordNode:
		b.nodes[container] = RecordNode{Fields: items}
	}
	b.slots[container] = slotDone
	b.open--
}

// Build returns the completed WitValue and consumes the builder.
// It panics if no node was added or a reservation is still open.
func (b *Builder) Build() WitValue {
	if b.built {
		panic(errors.Contract("builder used after Build"))
	}
	if len(b.nodes) == 0 {
		panic(errors.Contract("build of empty value"))
	}
	if b.open > 0 {
		for i, s := range b.slots {
			if s != slotDone {
				panic(errors.Contract("node %d (%s) was reserved but never finished", i, b.nodes[i].Kind()))
			}
		}
	}

	b.built = true
	w := WitValue{Nodes: b.nodes}
	b.nodes = nil
	b.slots = nil
	return w
}
