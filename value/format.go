package value

import (
	"strconv"
	"strings"
)

// Format renders v in a compact debug notation, e.g.
// record(u32(7), string("hi"), some(bool(true))).
func Format(v Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case Bool:
		b.WriteString("bool(")
		b.WriteString(strconv.FormatBool(bool(x)))
		b.WriteByte(')')
	case U8:
		scalar(b, "u8", strconv.FormatUint(uint64(x), 10))
	case U16:
		scalar(b, "u16", strconv.FormatUint(uint64(x), 10))
	case U32:
		scalar(b, "u32", strconv.FormatUint(uint64(x), 10))
	case U64:
		scalar(b, "u64", strconv.FormatUint(uint64(x), 10))
	case S8:
		scalar(b, "s8", strconv.FormatInt(int64(x), 10))
	case S16:
		scalar(b, "s16", strconv.FormatInt(int64(x), 10))
	case S32:
		scalar(b, "s32", strconv.FormatInt(int64(x), 10))
	case S64:
		scalar(b, "s64", strconv.FormatInt(int64(x), 10))
	case F32:
		scalar(b, "f32", strconv.FormatFloat(float64(x), 'g', -1, 32))
	case F64:
		scalar(b, "f64", strconv.FormatFloat(float64(x), 'g', -1, 64))
	case Char:
		scalar(b, "char", strconv.QuoteRune(rune(x)))
	case String:
		scalar(b, "string", strconv.Quote(string(x)))
	case List:
		seq(b, "list", x)
	case Tuple:
		seq(b, "tuple", x)
	case Record:
		seq(b, "record", x)
	case Variant:
		b.WriteString("variant(")
		b.WriteString(strconv.FormatUint(uint64(x.Case), 10))
		if x.Payload != nil {
			b.WriteString(", ")
			format(b, x.Payload)
		}
		b.WriteByte(')')
	case Enum:
		scalar(b, "enum", strconv.FormatUint(uint64(x), 10))
	case Flags:
		b.WriteString("flags(")
		for i, bit := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatBool(bit))
		}
		b.WriteByte(')')
	case Option:
		if x.Value == nil {
			b.WriteString("none")
			return
		}
		b.WriteString("some(")
		format(b, x.Value)
		b.WriteByte(')')
	case Result:
		if x.Err {
			b.WriteString("err(")
		} else {
			b.WriteString("ok(")
		}
		if x.Value != nil {
			format(b, x.Value)
		}
		b.WriteByte(')')
	}
}

func scalar(b *strings.Builder, name, payload string) {
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(payload)
	b.WriteByte(')')
}

func seq(b *strings.Builder, name string, items []Value) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, item)
	}
	b.WriteByte(')')
}
