package value

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"bool", KindBool},
		{"u8", KindU8},
		{"u16", KindU16},
		{"u32", KindU32},
		{"u64", KindU64},
		{"s8", KindS8},
		{"s16", KindS16},
		{"s32", KindS32},
		{"s64", KindS64},
		{"f32", KindF32},
		{"f64", KindF64},
		{"char", KindChar},
		{"string", KindString},
		{"list", KindList},
		{"tuple", KindTuple},
		{"record", KindRecord},
		{"variant", KindVariant},
		{"enum", KindEnum},
		{"flags", KindFlags},
		{"option", KindOption},
		{"result", KindResult},
		{"unknown", Kind(255)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindIsScalar(t *testing.T) {
	scalars := []Kind{
		KindBool, KindU8, KindU16, KindU32, KindU64,
		KindS8, KindS16, KindS32, KindS64,
		KindF32, KindF64, KindChar, KindString,
	}
	for _, k := range scalars {
		if !k.IsScalar() {
			t.Errorf("%s should be scalar", k)
		}
	}

	containers := []Kind{
		KindList, KindTuple, KindRecord, KindVariant,
		KindEnum, KindFlags, KindOption, KindResult,
	}
	for _, k := range containers {
		if k.IsScalar() {
			t.Errorf("%s should not be scalar", k)
		}
	}
}

func TestKindIsSequence(t *testing.T) {
	for _, k := range []Kind{KindList, KindTuple, KindRecord} {
		if !k.IsSequence() {
			t.Errorf("%s should be a sequence", k)
		}
	}
	for _, k := range []Kind{KindVariant, KindFlags, KindString, KindOption} {
		if k.IsSequence() {
			t.Errorf("%s should not be a sequence", k)
		}
	}
}

func TestParseKind(t *testing.T) {
	for k := KindBool; k <= KindResult; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("own"); ok {
		t.Error("ParseKind(own) should fail")
	}
}
