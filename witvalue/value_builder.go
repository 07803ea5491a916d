package witvalue

import (
	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/value"
)

// ValueBuilder constructs a WitValue with nested, chained calls:
//
//	w := witvalue.NewValueBuilder().
//		Record().
//			U32(7).
//			String("hi").
//			Some().Bool(true).
//		End().
//		Build()
//
// List, Tuple and Record open a container that collects every node added
// until the matching End. Variant, Some, Ok and Err open a container that takes
// exactly one child and closes itself once that child is complete.
type ValueBuilder struct {
	b     *Builder
	stack []frame
	root  bool
}

type frame struct {
	items []NodeIndex
	index NodeIndex
	seq   bool
}

// NewValueBuilder returns an empty fluent builder.
func NewValueBuilder() *ValueBuilder {
	return &ValueBuilder{b: NewBuilder()}
}

// complete attaches a finished node to the innermost open container, closing
// single-child containers as they fill.
func (vb *ValueBuilder) complete(idx NodeIndex) *ValueBuilder {
	for {
		if len(vb.stack) == 0 {
			if vb.root {
				panic(errors.Contract("value already has a root node"))
			}
			vb.root = true
			return vb
		}
		top := &vb.stack[len(vb.stack)-1]
		if top.seq {
			top.items = append(top.items, idx)
			return vb
		}
		vb.b.FinishChild(idx, top.index)
		idx = top.index
		vb.stack = vb.stack[:len(vb.stack)-1]
	}
}

func (vb *ValueBuilder) open(idx NodeIndex, seq bool) *ValueBuilder {
	if len(vb.stack) == 0 && vb.root {
		panic(errors.Contract("value already has a root node"))
	}
	vb.stack = append(vb.stack, frame{index: idx, seq: seq})
	return vb
}

func (vb *ValueBuilder) Bool(v bool) *ValueBuilder     { return vb.complete(vb.b.AddBool(v)) }
func (vb *ValueBuilder) U8(v uint8) *ValueBuilder      { return vb.complete(vb.b.AddU8(v)) }
func (vb *ValueBuilder) U16(v uint16) *ValueBuilder    { return vb.complete(vb.b.AddU16(v)) }
func (vb *ValueBuilder) U32(v uint32) *ValueBuilder    { return vb.complete(vb.b.AddU32(v)) }
func (vb *ValueBuilder) U64(v uint64) *ValueBuilder    { return vb.complete(vb.b.AddU64(v)) }
func (vb *ValueBuilder) S8(v int8) *ValueBuilder       { return vb.complete(vb.b.AddS8(v)) }
func (vb *ValueBuilder) S16(v int16) *ValueBuilder     { return vb.complete(vb.b.AddS16(v)) }
func (vb *ValueBuilder) S32(v int32) *ValueBuilder     { return vb.complete(vb.b.AddS32(v)) }
func (vb *ValueBuilder) S64(v int64) *ValueBuilder     { return vb.complete(vb.b.AddS64(v)) }
func (vb *ValueBuilder) F32(v float32) *ValueBuilder   { return vb.complete(vb.b.AddF32(v)) }
func (vb *ValueBuilder) F64(v float64) *ValueBuilder   { return vb.complete(vb.b.AddF64(v)) }
func (vb *ValueBuilder) Char(v rune) *ValueBuilder     { return vb.complete(vb.b.AddChar(v)) }
func (vb *ValueBuilder) String(v string) *ValueBuilder { return vb.complete(vb.b.AddString(v)) }
func (vb *ValueBuilder) Enum(c uint32) *ValueBuilder   { return vb.complete(vb.b.AddEnum(c)) }
func (vb *ValueBuilder) Flags(bits ...bool) *ValueBuilder {
	return vb.complete(vb.b.AddFlags(bits))
}

func (vb *ValueBuilder) UnitVariant(c uint32) *ValueBuilder { return vb.complete(vb.b.AddVariantUnit(c)) }
func (vb *ValueBuilder) None() *ValueBuilder                { return vb.complete(vb.b.AddOptionNone()) }
func (vb *ValueBuilder) OkUnit() *ValueBuilder              { return vb.complete(vb.b.AddResultOkUnit()) }
func (vb *ValueBuilder) ErrUnit() *ValueBuilder             { return vb.complete(vb.b.AddResultErrUnit()) }

func (vb *ValueBuilder) List() *ValueBuilder   { return vb.open(vb.b.AddList(), true) }
func (vb *ValueBuilder) Tuple() *ValueBuilder  { return vb.open(vb.b.AddTuple(), true) }
func (vb *ValueBuilder) Record() *ValueBuilder { return vb.open(vb.b.AddRecord(), true) }

// Variant opens a case whose payload is the next complete node.
func (vb *ValueBuilder) Variant(c uint32) *ValueBuilder { return vb.open(vb.b.AddVariant(c), false) }

func (vb *ValueBuilder) Some() *ValueBuilder { return vb.open(vb.b.AddOptionSome(), false) }
func (vb *ValueBuilder) Ok() *ValueBuilder   { return vb.open(vb.b.AddResultOk(), false) }
func (vb *ValueBuilder) Err() *ValueBuilder  { return vb.open(vb.b.AddResultErr(), false) }

// End closes the innermost List, Tuple or Record.
func (vb *ValueBuilder) End() *ValueBuilder {
	if len(vb.stack) == 0 {
		panic(errors.Contract("End without an open container"))
	}
	top := vb.stack[len(vb.stack)-1]
	if !top.seq {
		panic(errors.Contract("End of node %d, which takes a single child", top.index))
	}
	vb.stack = vb.stack[:len(vb.stack)-1]
	vb.b.FinishSeq(top.items, top.index)
	return vb.complete(top.index)
}

// Value appends a whole tree at the current position. A value that cannot be
// encoded is a contract violation; the encode error is kept as its cause.
func (vb *ValueBuilder) Value(v value.Value) *ValueBuilder {
	if len(vb.stack) == 0 && vb.root {
		panic(errors.Contract("value already has a root node"))
	}
	e := encoder{b: vb.b}
	idx, err := e.encode(v, 1)
	if err != nil {
		panic(errors.New(errors.PhaseBuild, errors.KindContract).
			Detail("cannot append value").
			Cause(err).
			Build())
	}
	return vb.complete(idx)
}

// Build returns the completed WitValue. It panics if a container is still open.
func (vb *ValueBuilder) Build() WitValue {
	if len(vb.stack) > 0 {
		panic(errors.Contract("%d container(s) still open", len(vb.stack)))
	}
	return vb.b.Build()
}
