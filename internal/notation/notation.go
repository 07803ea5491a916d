// Package notation reads and writes values as YAML documents.
//
// Every value is a single-key mapping whose key names its kind:
//
//	record:
//	  - u32: 7
//	  - string: hi
//	  - some:
//	      bool: true
//
// Option and result use the keys some, none, ok and err; a unit arm carries
// null. A variant is {case: N} with an optional value key. Float payloads that
// YAML cannot carry exactly (NaN, negative zero) are written as their IEEE
// bit pattern in a hex string. Strings holding anything other than letters,
// digits and inner spaces are written under quoted in Go syntax, so every
// byte sequence survives.
package notation

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-yaml"

	"github.com/wippyai/wasm-rpc/errors"
	"github.com/wippyai/wasm-rpc/value"
)

// MaxDepth bounds the nesting accepted by Parse.
const MaxDepth = 512

const (
	keySome   = "some"
	keyNone   = "none"
	keyOk     = "ok"
	keyErr    = "err"
	keyQuoted = "quoted"
	keyCase   = "case"
	keyValue  = "value"
)

// Format renders v as a YAML document.
func Format(v value.Value) ([]byte, error) {
	if v == nil {
		return nil, errors.InvalidData(errors.PhaseParse, nil, "nil value")
	}
	return yaml.MarshalWithOptions(tree(v), yaml.IndentSequence(true))
}

// MustFormat is Format for values known to be non-nil.
func MustFormat(v value.Value) string {
	b, err := Format(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func tree(v value.Value) map[string]any {
	single := func(k string, x any) map[string]any { return map[string]any{k: x} }
	name := v.Kind().String()

	switch x := v.(type) {
	case value.Bool:
		return single(name, bool(x))
	case value.U8:
		return single(name, uint64(x))
	case value.U16:
		return single(name, uint64(x))
	case value.U32:
		return single(name, uint64(x))
	case value.U64:
		return single(name, uint64(x))
	case value.S8:
		return single(name, int64(x))
	case value.S16:
		return single(name, int64(x))
	case value.S32:
		return single(name, int64(x))
	case value.S64:
		return single(name, int64(x))
	case value.F32:
		f := float64(x)
		if math.IsNaN(f) || (f == 0 && math.Signbit(f)) {
			return single(name, "0x"+strconv.FormatUint(uint64(math.Float32bits(float32(x))), 16))
		}
		return single(name, f)
	case value.F64:
		f := float64(x)
		if math.IsNaN(f) || (f == 0 && math.Signbit(f)) {
			return single(name, "0x"+strconv.FormatUint(math.Float64bits(f), 16))
		}
		return single(name, f)
	case value.Char:
		if unicode.IsPrint(rune(x)) {
			return single(name, string(rune(x)))
		}
		return single(name, int64(x))
	case value.String:
		if !plain(string(x)) {
			return single(keyQuoted, strconv.Quote(string(x)))
		}
		return single(name, string(x))
	case value.Enum:
		return single(name, uint64(x))
	case value.Flags:
		return single(name, []bool(x))

	case value.List:
		return single(name, trees(x))
	case value.Tuple:
		return single(name, trees(x))
	case value.Record:
		return single(name, trees(x))
	case value.Variant:
		body := map[string]any{keyCase: uint64(x.Case)}
		if x.Payload != nil {
			body[keyValue] = tree(x.Payload)
		}
		return single(name, body)
	case value.Option:
		if x.Value == nil {
			return single(keyNone, nil)
		}
		return single(keySome, tree(x.Value))
	case value.Result:
		key := keyOk
		if x.Err {
			key = keyErr
		}
		if x.Value == nil {
			return single(key, nil)
		}
		return single(key, tree(x.Value))
	}
	panic("notation: unknown value type")
}

func trees(items []value.Value) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = tree(v)
	}
	return out
}

// plain reports whether s can be written as a bare YAML scalar. Anything
// beyond letters, digits and inner spaces goes through the quoted form.
func plain(s string) bool {
	if !utf8.ValidString(s) || strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Parse reads one value from a YAML document.
func Parse(data []byte) (value.Value, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "invalid YAML")
	}
	if doc == nil {
		return nil, errors.Empty(errors.PhaseParse)
	}
	v, err := parse(doc, nil, 1)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func at(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func mismatch(path []string, want string, got any) error {
	return errors.New(errors.PhaseParse, errors.KindTypeMismatch).
		Path(path...).
		Detail("expected %s, got %T", want, got).
		Value(got).
		Build()
}

func parse(node any, path []string, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return nil, errors.LimitExceeded(errors.PhaseParse, path, "nesting depth", MaxDepth)
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, mismatch(path, "single-key mapping", node)
	}
	if len(m) != 1 {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path(path...).
			Detail("value mapping has %d keys, want 1", len(m)).
			Build()
	}

	var key string
	var body any
	for k, v := range m {
		key, body = k, v
	}
	path = at(path, key)

	switch key {
	case keySome:
		v, err := parse(body, path, depth+1)
		if err != nil {
			return nil, err
		}
		return value.Some(v), nil
	case keyNone:
		if body != nil {
			return nil, mismatch(path, "null", body)
		}
		return value.None(), nil
	case keyOk, keyErr:
		r := value.Result{Err: key == keyErr}
		if body != nil {
			v, err := parse(body, path, depth+1)
			if err != nil {
				return nil, err
			}
			r.Value = v
		}
		return r, nil
	case keyQuoted:
		q, ok := body.(string)
		if !ok {
			return nil, mismatch(path, "quoted string", body)
		}
		s, err := strconv.Unquote(q)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "malformed quoted string")
		}
		return value.String(s), nil
	}

	kind, ok := value.ParseKind(key)
	if !ok || kind == value.KindOption || kind == value.KindResult {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path(path...).
			Detail("unknown value kind %q", key).
			Build()
	}

	switch kind {
	case value.KindBool:
		b, ok := body.(bool)
		if !ok {
			return nil, mismatch(path, "bool", body)
		}
		return value.Bool(b), nil
	case value.KindU8:
		n, err := unsigned(body, path, math.MaxUint8)
		return value.U8(n), err
	case value.KindU16:
		n, err := unsigned(body, path, math.MaxUint16)
		return value.U16(n), err
	case value.KindU32:
		n, err := unsigned(body, path, math.MaxUint32)
		return value.U32(n), err
	case value.KindU64:
		n, err := unsigned(body, path, math.MaxUint64)
		return value.U64(n), err
	case value.KindS8:
		n, err := signed(body, path, math.MinInt8, math.MaxInt8)
		return value.S8(n), err
	case value.KindS16:
		n, err := signed(body, path, math.MinInt16, math.MaxInt16)
		return value.S16(n), err
	case value.KindS32:
		n, err := signed(body, path, math.MinInt32, math.MaxInt32)
		return value.S32(n), err
	case value.KindS64:
		n, err := signed(body, path, math.MinInt64, math.MaxInt64)
		return value.S64(n), err
	case value.KindF32:
		return float32Of(body, path)
	case value.KindF64:
		return float64Of(body, path)
	case value.KindChar:
		return charOf(body, path)
	case value.KindString:
		s, ok := body.(string)
		if !ok {
			return nil, mismatch(path, "string", body)
		}
		return value.String(s), nil
	case value.KindEnum:
		n, err := unsigned(body, path, math.MaxUint32)
		return value.Enum(n), err
	case value.KindFlags:
		return flagsOf(body, path)
	case value.KindVariant:
		return variantOf(body, path, depth)
	}

	items, err := seqOf(body, path, depth)
	if err != nil {
		return nil, err
	}
	switch kind {
	case value.KindList:
		return value.List(items), nil
	case value.KindTuple:
		return value.Tuple(items), nil
	default:
		return value.Record(items), nil
	}
}

func seqOf(body any, path []string, depth int) ([]value.Value, error) {
	if body == nil {
		return []value.Value{}, nil
	}
	raw, ok := body.([]any)
	if !ok {
		return nil, mismatch(path, "sequence", body)
	}
	items := make([]value.Value, len(raw))
	for i, r := range raw {
		v, err := parse(r, at(path, "["+strconv.Itoa(i)+"]"), depth+1)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func flagsOf(body any, path []string) (value.Value, error) {
	if body == nil {
		return value.Flags{}, nil
	}
	raw, ok := body.([]any)
	if !ok {
		return nil, mismatch(path, "sequence of bool", body)
	}
	bits := make(value.Flags, len(raw))
	for i, r := range raw {
		b, ok := r.(bool)
		if !ok {
			return nil, mismatch(at(path, "["+strconv.Itoa(i)+"]"), "bool", r)
		}
		bits[i] = b
	}
	return bits, nil
}

func variantOf(body any, path []string, depth int) (value.Value, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return nil, mismatch(path, "variant mapping", body)
	}
	for k := range m {
		if k != keyCase && k != keyValue {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Path(path...).
				Detail("unexpected variant key %q", k).
				Build()
		}
	}
	c, ok := m[keyCase]
	if !ok {
		return nil, errors.InvalidData(errors.PhaseParse, path, "variant without case")
	}
	n, err := unsigned(c, at(path, keyCase), math.MaxUint32)
	if err != nil {
		return nil, err
	}
	v := value.Variant{Case: uint32(n)}
	if payload, ok := m[keyValue]; ok && payload != nil {
		if v.Payload, err = parse(payload, at(path, keyValue), depth+1); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func overflow(path []string, got any) error {
	return errors.New(errors.PhaseParse, errors.KindOverflow).
		Path(path...).
		Detail("%v out of range", got).
		Value(got).
		Build()
}

func unsigned(body any, path []string, limit uint64) (uint64, error) {
	var n uint64
	switch x := body.(type) {
	case uint64:
		n = x
	case int64:
		if x < 0 {
			return 0, overflow(path, x)
		}
		n = uint64(x)
	case int:
		if x < 0 {
			return 0, overflow(path, x)
		}
		n = uint64(x)
	case float64:
		if x < 0 || x != math.Trunc(x) || x > float64(limit) {
			return 0, overflow(path, x)
		}
		n = uint64(x)
	default:
		return 0, mismatch(path, "unsigned integer", body)
	}
	if n > limit {
		return 0, overflow(path, body)
	}
	return n, nil
}

func signed(body any, path []string, lo, hi int64) (int64, error) {
	var n int64
	switch x := body.(type) {
	case int64:
		n = x
	case int:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0, overflow(path, x)
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x < float64(lo) || x > float64(hi) {
			return 0, overflow(path, x)
		}
		n = int64(x)
	default:
		return 0, mismatch(path, "signed integer", body)
	}
	if n < lo || n > hi {
		return 0, overflow(path, body)
	}
	return n, nil
}

// number accepts YAML numbers and strings holding a float literal or a
// 0x-prefixed bit pattern. bits reports which one was found.
func number(body any, path []string, bitSize int) (f float64, bits uint64, isBits bool, err error) {
	switch x := body.(type) {
	case float64:
		return x, 0, false, nil
	case uint64:
		return float64(x), 0, false, nil
	case int64:
		return float64(x), 0, false, nil
	case int:
		return float64(x), 0, false, nil
	case string:
		if strings.HasPrefix(x, "0x") {
			b, err := strconv.ParseUint(x[2:], 16, bitSize)
			if err != nil {
				return 0, 0, false, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "malformed float bit pattern")
			}
			return 0, b, true, nil
		}
		f, err := strconv.ParseFloat(x, bitSize)
		if err != nil {
			return 0, 0, false, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "malformed float")
		}
		return f, 0, false, nil
	}
	return 0, 0, false, mismatch(path, "float", body)
}

func float32Of(body any, path []string) (value.Value, error) {
	f, bits, isBits, err := number(body, path, 32)
	if err != nil {
		return nil, err
	}
	if isBits {
		return value.F32(math.Float32frombits(uint32(bits))), nil
	}
	return value.F32(float32(f)), nil
}

func float64Of(body any, path []string) (value.Value, error) {
	f, bits, isBits, err := number(body, path, 64)
	if err != nil {
		return nil, err
	}
	if isBits {
		return value.F64(math.Float64frombits(bits)), nil
	}
	return value.F64(f), nil
}

func charOf(body any, path []string) (value.Value, error) {
	if s, ok := body.(string); ok {
		r, size := utf8.DecodeRuneInString(s)
		if s == "" || size != len(s) || (r == utf8.RuneError && size == 1) {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Path(path...).
				Detail("char must be exactly one rune, got %q", s).
				Build()
		}
		return value.Char(r), nil
	}
	n, err := signed(body, path, 0, utf8.MaxRune)
	if err != nil {
		return nil, err
	}
	return value.Char(rune(n)), nil
}
