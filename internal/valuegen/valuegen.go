// Package valuegen produces random values for round-trip testing.
//
// Choices come either from a seeded PRNG (New, NewWithConfig) or from fuzzer
// input through a go-fuzz-headers consumer (FromConsumer). Either way
// generation is deterministic for the same seed or input. Scalars are drawn
// from the boundary set of their type about a quarter of the time so that
// extremes (min/max integers, signed zero, infinities, multi-byte runes, empty
// strings and containers) show up in every run.
package valuegen

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/wippyai/wasm-rpc/value"
)

// Config bounds the shape of generated values.
type Config struct {
	// MaxDepth is the deepest nesting produced; a scalar has depth 1.
	MaxDepth int
	// MaxWidth caps the element count of lists, tuples, records and flags.
	MaxWidth int
	// MaxStringLen caps the rune count of generated strings.
	MaxStringLen int
	// NoNaN replaces NaN float payloads with zero.
	NoNaN bool
}

// DefaultConfig is used by New.
var DefaultConfig = Config{
	MaxDepth:     6,
	MaxWidth:     5,
	MaxStringLen: 16,
}

// source supplies every choice the generator makes. *rand.Rand satisfies it.
type source interface {
	IntN(n int) int
	Uint32() uint32
	Uint64() uint64
}

// Generator produces random values. It is not safe for concurrent use.
type Generator struct {
	r   source
	cfg Config
}

// New returns a generator seeded with seed using DefaultConfig.
func New(seed uint64) *Generator {
	return NewWithConfig(seed, DefaultConfig)
}

// NewWithConfig returns a generator seeded with seed. Non-positive limits fall
// back to DefaultConfig.
func NewWithConfig(seed uint64, cfg Config) *Generator {
	return newGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), cfg)
}

func newGenerator(r source, cfg Config) *Generator {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultConfig.MaxDepth
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = DefaultConfig.MaxWidth
	}
	if cfg.MaxStringLen <= 0 {
		cfg.MaxStringLen = DefaultConfig.MaxStringLen
	}
	return &Generator{r: r, cfg: cfg}
}

// Config returns the generator's effective configuration.
func (g *Generator) Config() Config { return g.cfg }

// Value returns a random value of any kind.
func (g *Generator) Value() value.Value {
	return g.value(1)
}

// OfKind returns a random value of kind k.
func (g *Generator) OfKind(k value.Kind) value.Value {
	return g.ofKind(k, 1)
}

func (g *Generator) value(depth int) value.Value {
	if depth >= g.cfg.MaxDepth {
		return g.ofKind(leafKinds[g.r.IntN(len(leafKinds))], depth)
	}
	return g.ofKind(value.Kind(g.r.IntN(int(value.KindResult)+1)), depth)
}

// leafKinds never produce children.
var leafKinds = []value.Kind{
	value.KindBool, value.KindU8, value.KindU16, value.KindU32, value.KindU64,
	value.KindS8, value.KindS16, value.KindS32, value.KindS64,
	value.KindF32, value.KindF64, value.KindChar, value.KindString,
	value.KindEnum, value.KindFlags,
}

func (g *Generator) boundary() bool { return g.r.IntN(4) == 0 }

func (g *Generator) ofKind(k value.Kind, depth int) value.Value {
	if k.IsScalar() && g.boundary() {
		if b := boundaryOf(k); len(b) > 0 {
			return g.fixFloat(b[g.r.IntN(len(b))])
		}
	}

	switch k {
	case value.KindBool:
		return value.Bool(g.r.IntN(2) == 1)
	case value.KindU8:
		return value.U8(g.r.Uint32())
	case value.KindU16:
		return value.U16(g.r.Uint32())
	case value.KindU32:
		return value.U32(g.r.Uint32())
	case value.KindU64:
		return value.U64(g.r.Uint64())
	case value.KindS8:
		return value.S8(g.r.Uint32())
	case value.KindS16:
		return value.S16(g.r.Uint32())
	case value.KindS32:
		return value.S32(g.r.Uint32())
	case value.KindS64:
		return value.S64(g.r.Uint64())
	case value.KindF32:
		return g.fixFloat(value.F32(math.Float32frombits(g.r.Uint32())))
	case value.KindF64:
		return g.fixFloat(value.F64(math.Float64frombits(g.r.Uint64())))
	case value.KindChar:
		return value.Char(g.char())
	case value.KindString:
		return value.String(g.text())

	case value.KindList:
		return value.List(g.children(depth))
	case value.KindTuple:
		return value.Tuple(g.children(depth))
	case value.KindRecord:
		return value.Record(g.children(depth))

	case value.KindVariant:
		c := uint32(g.r.IntN(8))
		if depth >= g.cfg.MaxDepth || g.r.IntN(3) == 0 {
			return value.UnitVariant(c)
		}
		return value.VariantOf(c, g.value(depth+1))

	case value.KindEnum:
		return value.Enum(uint32(g.r.IntN(16)))

	case value.KindFlags:
		return g.flags()

	case value.KindOption:
		if depth >= g.cfg.MaxDepth || g.r.IntN(3) == 0 {
			return value.None()
		}
		return value.Some(g.value(depth + 1))

	case value.KindResult:
		isErr := g.r.IntN(2) == 1
		if depth >= g.cfg.MaxDepth || g.r.IntN(3) == 0 {
			return value.Result{Err: isErr}
		}
		return value.Result{Err: isErr, Value: g.value(depth + 1)}
	}
	return value.Bool(false)
}

func (g *Generator) children(depth int) []value.Value {
	if depth >= g.cfg.MaxDepth {
		return []value.Value{}
	}
	n := g.r.IntN(g.cfg.MaxWidth + 1)
	out := make([]value.Value, n)
	for i := range out {
		out[i] = g.value(depth + 1)
	}
	return out
}

func (g *Generator) flags() value.Flags {
	n := g.r.IntN(g.cfg.MaxWidth*4 + 1)
	bits := make(value.Flags, n)
	switch g.r.IntN(4) {
	case 0:
	case 1:
		for i := range bits {
			bits[i] = true
		}
	default:
		for i := range bits {
			bits[i] = g.r.IntN(2) == 1
		}
	}
	return bits
}

// char returns a random Unicode scalar value, skipping the surrogate range.
func (g *Generator) char() rune {
	if g.r.IntN(2) == 0 {
		return rune(0x20 + g.r.IntN(0x5f))
	}
	n := rune(g.r.IntN(0x110000 - 0x800))
	if n >= 0xD800 {
		n += 0x800
	}
	return n
}

func (g *Generator) text() string {
	n := g.r.IntN(g.cfg.MaxStringLen + 1)
	var b strings.Builder
	for range n {
		b.WriteRune(g.char())
	}
	return b.String()
}

func (g *Generator) fixFloat(v value.Value) value.Value {
	if !g.cfg.NoNaN {
		return v
	}
	switch f := v.(type) {
	case value.F32:
		if math.IsNaN(float64(f)) {
			return value.F32(0)
		}
	case value.F64:
		if math.IsNaN(float64(f)) {
			return value.F64(0)
		}
	}
	return v
}
