package value

// Value is a dynamically typed component-model value.
//
// Exactly one case type implements it per value. Field names, case names and
// element types belong to the interface description and are not carried here.
type Value interface {
	Kind() Kind
	isValue()
}

type Bool bool

type U8 uint8

type U16 uint16

type U32 uint32

type U64 uint64

type S8 int8

type S16 int16

type S32 int32

type S64 int64

type F32 float32

type F64 float64

// Char is a Unicode scalar value.
type Char rune

type String string

// List is a homogeneous sequence. Homogeneity is not enforced.
type List []Value

// Tuple is a fixed-arity sequence of heterogeneous values.
type Tuple []Value

// Record holds field values in declaration order.
type Record []Value

// Variant selects a case by index. Payload is nil for cases without data.
type Variant struct {
	Payload Value
	Case    uint32
}

// Enum is a bare case index.
type Enum uint32

// Flags holds one bit per declared flag.
type Flags []bool

// Option is present when Value is non-nil.
type Option struct {
	Value Value
}

// Result is the failure arm when Err is set. Value is nil for a unit arm.
type Result struct {
	Value Value
	Err   bool
}

func (Bool) Kind() Kind    { return KindBool }
func (U8) Kind() Kind      { return KindU8 }
func (U16) Kind() Kind     { return KindU16 }
func (U32) Kind() Kind     { return KindU32 }
func (U64) Kind() Kind     { return KindU64 }
func (S8) Kind() Kind      { return KindS8 }
func (S16) Kind() Kind     { return KindS16 }
func (S32) Kind() Kind     { return KindS32 }
func (S64) Kind() Kind     { return KindS64 }
func (F32) Kind() Kind     { return KindF32 }
func (F64) Kind() Kind     { return KindF64 }
func (Char) Kind() Kind    { return KindChar }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Tuple) Kind() Kind   { return KindTuple }
func (Record) Kind() Kind  { return KindRecord }
func (Variant) Kind() Kind { return KindVariant }
func (Enum) Kind() Kind    { return KindEnum }
func (Flags) Kind() Kind   { return KindFlags }
func (Option) Kind() Kind  { return KindOption }
func (Result) Kind() Kind  { return KindResult }

func (Bool) isValue()    {}
func (U8) isValue()      {}
func (U16) isValue()     {}
func (U32) isValue()     {}
func (U64) isValue()     {}
func (S8) isValue()      {}
func (S16) isValue()     {}
func (S32) isValue()     {}
func (S64) isValue()     {}
func (F32) isValue()     {}
func (F64) isValue()     {}
func (Char) isValue()    {}
func (String) isValue()  {}
func (List) isValue()    {}
func (Tuple) isValue()   {}
func (Record) isValue()  {}
func (Variant) isValue() {}
func (Enum) isValue()    {}
func (Flags) isValue()   {}
func (Option) isValue()  {}
func (Result) isValue()  {}

// Some returns a present option.
func Some(v Value) Option { return Option{Value: v} }

// None returns an absent option.
func None() Option { return Option{} }

// Ok returns a success result carrying v.
func Ok(v Value) Result { return Result{Value: v} }

// Err returns a failure result carrying v.
func Err(v Value) Result { return Result{Value: v, Err: true} }

// OkUnit returns a success result without payload.
func OkUnit() Result { return Result{} }

// ErrUnit returns a failure result without payload.
func ErrUnit() Result { return Result{Err: true} }

// VariantOf returns the variant case with the given payload.
func VariantOf(c uint32, payload Value) Variant { return Variant{Case: c, Payload: payload} }

// UnitVariant returns a variant case without payload.
func UnitVariant(c uint32) Variant { return Variant{Case: c} }

// IsSome reports whether the option holds a value.
func (o Option) IsSome() bool { return o.Value != nil }

// IsUnit reports whether the selected arm carries no payload.
func (r Result) IsUnit() bool { return r.Value == nil }

// HasPayload reports whether the selected case carries data.
func (v Variant) HasPayload() bool { return v.Payload != nil }

// Children returns the nested values of v in encoding order.
func Children(v Value) []Value {
	switch x := v.(type) {
	case List:
		return x
	case Tuple:
		return x
	case Record:
		return x
	case Variant:
		if x.Payload != nil {
			return []Value{x.Payload}
		}
	case Option:
		if x.Value != nil {
			return []Value{x.Value}
		}
	case Result:
		if x.Value != nil {
			return []Value{x.Value}
		}
	}
	return nil
}

// Depth returns the nesting depth of v. Scalars have depth 1.
func Depth(v Value) int {
	if v == nil {
		return 0
	}
	maxChild := 0
	for _, c := range Children(v) {
		if d := Depth(c); d > maxChild {
			maxChild = d
		}
	}
	return maxChild + 1
}

// Count returns the number of nodes v encodes to.
func Count(v Value) int {
	if v == nil {
		return 0
	}
	n := 1
	for _, c := range Children(v) {
		n += Count(c)
	}
	return n
}
