package value

// Equal reports whether a and b are structurally equal.
//
// Sequences compare in order. Floats compare with ==, so a NaN payload is
// never equal to itself.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case List:
		return equalSeq(x, b.(List))
	case Tuple:
		return equalSeq(x, b.(Tuple))
	case Record:
		return equalSeq(x, b.(Record))
	case Variant:
		y := b.(Variant)
		return x.Case == y.Case && Equal(x.Payload, y.Payload)
	case Option:
		return Equal(x.Value, b.(Option).Value)
	case Result:
		y := b.(Result)
		return x.Err == y.Err && Equal(x.Value, y.Value)
	case Flags:
		y := b.(Flags)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	default:
		// scalars and Enum are comparable
		return a == b
	}
}

func equalSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ContainsNaN reports whether v holds a float payload that is not equal to itself.
func ContainsNaN(v Value) bool {
	switch x := v.(type) {
	case F32:
		return x != x
	case F64:
		return x != x
	}
	for _, c := range Children(v) {
		if ContainsNaN(c) {
			return true
		}
	}
	return false
}
