package value

// Kind discriminates the cases of a Value.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindS8
	KindS16
	KindS32
	KindS64
	KindF32
	KindF64
	KindChar
	KindString
	KindList
	KindTuple
	KindRecord
	KindVariant
	KindEnum
	KindFlags
	KindOption
	KindResult
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindS8:      "s8",
	KindS16:     "s16",
	KindS32:     "s32",
	KindS64:     "s64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindChar:    "char",
	KindString:  "string",
	KindList:    "list",
	KindTuple:   "tuple",
	KindRecord:  "record",
	KindVariant: "variant",
	KindEnum:    "enum",
	KindFlags:   "flags",
	KindOption:  "option",
	KindResult:  "result",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of this kind carry their payload directly.
func (k Kind) IsScalar() bool {
	return k <= KindString
}

// IsSequence reports whether values of this kind hold an ordered list of children.
func (k Kind) IsSequence() bool {
	return k == KindList || k == KindTuple || k == KindRecord
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}
