package valuegen

import (
	"math"

	"github.com/wippyai/wasm-rpc/value"
)

var boundaries = map[value.Kind][]value.Value{
	value.KindBool: {value.Bool(false), value.Bool(true)},
	value.KindU8:   {value.U8(0), value.U8(1), value.U8(math.MaxUint8)},
	value.KindU16:  {value.U16(0), value.U16(math.MaxUint16)},
	value.KindU32:  {value.U32(0), value.U32(math.MaxUint32)},
	value.KindU64:  {value.U64(0), value.U64(math.MaxUint64)},
	value.KindS8:   {value.S8(math.MinInt8), value.S8(-1), value.S8(0), value.S8(math.MaxInt8)},
	value.KindS16:  {value.S16(math.MinInt16), value.S16(0), value.S16(math.MaxInt16)},
	value.KindS32:  {value.S32(math.MinInt32), value.S32(0), value.S32(math.MaxInt32)},
	value.KindS64:  {value.S64(math.MinInt64), value.S64(0), value.S64(math.MaxInt64)},
	value.KindF32: {
		value.F32(0),
		value.F32(math.Copysign(0, -1)),
		value.F32(math.Inf(1)),
		value.F32(math.Inf(-1)),
		value.F32(math.MaxFloat32),
		value.F32(-math.MaxFloat32),
		value.F32(math.SmallestNonzeroFloat32),
	},
	value.KindF64: {
		value.F64(0),
		value.F64(math.Copysign(0, -1)),
		value.F64(math.Inf(1)),
		value.F64(math.Inf(-1)),
		value.F64(math.MaxFloat64),
		value.F64(-math.MaxFloat64),
		value.F64(math.SmallestNonzeroFloat64),
	},
	value.KindChar: {
		value.Char(0),
		value.Char('a'),
		value.Char('é'),
		value.Char('€'),
		value.Char('😀'),
		value.Char(0xD7FF),
		value.Char(0xE000),
		value.Char(0x10FFFF),
	},
	value.KindString: {
		value.String(""),
		value.String("hi"),
		value.String("héllo wörld"),
		value.String("日本語"),
		value.String("😀\x00😀"),
	},
}

func boundaryOf(k value.Kind) []value.Value {
	return boundaries[k]
}

// Boundary returns every boundary scalar together with empty containers and
// uniform flags. The result is freshly allocated.
func Boundary() []value.Value {
	var out []value.Value
	for k := value.KindBool; k <= value.KindString; k++ {
		out = append(out, boundaries[k]...)
	}
	return append(out,
		value.List{},
		value.Tuple{},
		value.Record{},
		value.Flags{},
		value.Flags{true, true, true, true, true, true, true, true, true},
		value.Flags{false, false, false, false, false, false, false, false, false},
		value.None(),
		value.OkUnit(),
		value.ErrUnit(),
		value.UnitVariant(0),
		value.Enum(0),
		value.Enum(math.MaxUint32),
	)
}
