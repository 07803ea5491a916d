package layout

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-rpc/canon/internal/abi"
)

// Info describes a type's placement in linear memory.
type Info struct {
	// Offsets holds record field or tuple element offsets in declaration order.
	Offsets []uint32
	Size    uint32
	Align   uint32
	// Payload is the offset of the case payload for variant, option and result.
	Payload uint32
	// Disc is the discriminant width for variant, enum, option and result.
	Disc uint32
}

type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info = c.sequence(types)
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.Variant:
		types := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			types[i] = cs.Type
		}
		info = c.tagged(abi.DiscriminantSize(len(kind.Cases)), types)
	case *wit.Enum:
		size := abi.DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size, Disc: size}
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Option:
		info = c.tagged(1, []wit.Type{nil, kind.Type})
	case *wit.Result:
		info = c.tagged(1, []wit.Type{kind.OK, kind.Err})
	case *wit.Flags:
		info = calculateFlags(len(kind.Flags))
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

// sequence lays out record fields and tuple elements.
func (c *Calculator) sequence(types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uint32, len(types))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, typ := range types {
		elem := c.Calculate(typ)
		offset = abi.AlignTo(offset, elem.Align)
		offsets[i] = offset

		if elem.Align > maxAlign {
			maxAlign = elem.Align
		}

		offset += elem.Size
	}

	return Info{
		Offsets: offsets,
		Size:    abi.AlignTo(offset, maxAlign),
		Align:   maxAlign,
	}
}

// tagged lays out a discriminant followed by the largest case payload.
// A nil entry is a case without payload.
func (c *Calculator) tagged(disc uint32, cases []wit.Type) Info {
	maxAlign := disc
	maxSize := uint32(0)

	for _, typ := range cases {
		if typ == nil {
			continue
		}
		payload := c.Calculate(typ)
		if payload.Align > maxAlign {
			maxAlign = payload.Align
		}
		if payload.Size > maxSize {
			maxSize = payload.Size
		}
	}

	payloadOffset := abi.AlignTo(disc, maxAlign)
	return Info{
		Size:    abi.AlignTo(payloadOffset+maxSize, maxAlign),
		Align:   maxAlign,
		Payload: payloadOffset,
		Disc:    disc,
	}
}

func calculateFlags(numFlags int) Info {
	if numFlags == 0 {
		return Info{Size: 0, Align: 1}
	}

	if numFlags <= 8 {
		return Info{Size: 1, Align: 1}
	} else if numFlags <= 16 {
		return Info{Size: 2, Align: 2}
	} else if numFlags <= 32 {
		return Info{Size: 4, Align: 4}
	}

	numU32s := (numFlags + 31) / 32
	return Info{Size: uint32(numU32s * 4), Align: 4}
}
