package canon

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-rpc/canon/internal/layout"
)

// wit-node case discriminants, in declaration order.
const (
	discRecord uint8 = iota
	discVariant
	discEnum
	discFlags
	discTuple
	discList
	discOption
	discResult
	discU8
	discU16
	discU32
	discU64
	discS8
	discS16
	discS32
	discS64
	discF32
	discF64
	discChar
	discBool
	discString
	nodeCases
)

type witTypes struct {
	value     *wit.TypeDef
	node      *wit.TypeDef
	index     *wit.TypeDef
	optIndex  *wit.TypeDef
	variant   *wit.TypeDef
	result    *wit.TypeDef
	indexList *wit.TypeDef
	bitList   *wit.TypeDef
}

func name(s string) *string { return &s }

func newWitTypes() witTypes {
	var t witTypes
	t.index = &wit.TypeDef{Name: name("node-index"), Kind: wit.S32{}}
	t.optIndex = &wit.TypeDef{Kind: &wit.Option{Type: t.index}}
	t.indexList = &wit.TypeDef{Kind: &wit.List{Type: t.index}}
	t.bitList = &wit.TypeDef{Kind: &wit.List{Type: wit.Bool{}}}
	t.variant = &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, t.optIndex}}}
	t.result = &wit.TypeDef{Kind: &wit.Result{OK: t.optIndex, Err: t.optIndex}}

	t.node = &wit.TypeDef{Name: name("wit-node"), Kind: &wit.Variant{Cases: []wit.Case{
		{Name: "record-value", Type: t.indexList},
		{Name: "variant-value", Type: t.variant},
		{Name: "enum-value", Type: wit.U32{}},
		{Name: "flags-value", Type: t.bitList},
		{Name: "tuple-value", Type: t.indexList},
		{Name: "list-value", Type: t.indexList},
		{Name: "option-value", Type: t.optIndex},
		{Name: "result-value", Type: t.result},
		{Name: "prim-u8", Type: wit.U8{}},
		{Name: "prim-u16", Type: wit.U16{}},
		{Name: "prim-u32", Type: wit.U32{}},
		{Name: "prim-u64", Type: wit.U64{}},
		{Name: "prim-s8", Type: wit.S8{}},
		{Name: "prim-s16", Type: wit.S16{}},
		{Name: "prim-s32", Type: wit.S32{}},
		{Name: "prim-s64", Type: wit.S64{}},
		{Name: "prim-float32", Type: wit.F32{}},
		{Name: "prim-float64", Type: wit.F64{}},
		{Name: "prim-char", Type: wit.Char{}},
		{Name: "prim-bool", Type: wit.Bool{}},
		{Name: "prim-string", Type: wit.String{}},
	}}}

	t.value = &wit.TypeDef{Name: name("wit-value"), Kind: &wit.Record{Fields: []wit.Field{
		{Name: "nodes", Type: &wit.TypeDef{Kind: &wit.List{Type: t.node}}},
	}}}
	return t
}

var types = newWitTypes()

// WitValueType returns the wit-value record definition. The result is shared
// and must not be modified.
func WitValueType() *wit.TypeDef { return types.value }

// WitNodeType returns the wit-node variant definition. The result is shared
// and must not be modified.
func WitNodeType() *wit.TypeDef { return types.node }

// nodeLayout holds the byte offsets of every wit-node field, relative to the
// start of the node.
type nodeLayout struct {
	size  uint32
	align uint32

	// payload is the start of the case payload.
	payload uint32
	// variantCase and variantOpt locate the tuple<u32, option<node-index>>
	// fields of variant-value.
	variantCase uint32
	variantOpt  uint32
	// resultOpt locates the option inside result-value.
	resultOpt uint32
	// optValue is the index within an option<node-index>.
	optValue uint32

	indexSize  uint32
	indexAlign uint32
}

func newNodeLayout(t witTypes) nodeLayout {
	c := layout.NewCalculator()
	node := c.Calculate(t.node)
	variant := c.Calculate(t.variant)
	opt := c.Calculate(t.optIndex)
	index := c.Calculate(t.index)

	return nodeLayout{
		size:        node.Size,
		align:       node.Align,
		payload:     node.Payload,
		variantCase: node.Payload + variant.Offsets[0],
		variantOpt:  node.Payload + variant.Offsets[1],
		resultOpt:   node.Payload + c.Calculate(t.result).Payload,
		optValue:    opt.Payload,
		indexSize:   index.Size,
		indexAlign:  index.Align,
	}
}

var nodeShape = newNodeLayout(types)

// NodeSize is the size in bytes of one lowered wit-node.
func NodeSize() uint32 { return nodeShape.size }

// NodeAlign is the alignment of the lowered node array.
func NodeAlign() uint32 { return nodeShape.align }
