package valuegen

import (
	"fmt"
	"math"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/wippyai/wasm-rpc/value"
)

// FromConsumer builds one value from fuzzer input. Every choice the generator
// makes, including the boundary bias, is read from c, so the fuzzing engine
// steers the shape and the scalars. It fails when c runs out of bytes before
// the value is complete.
func FromConsumer(c *fuzz.ConsumeFuzzer, cfg Config) (value.Value, error) {
	src := &consumed{c: c}
	v := newGenerator(src, cfg).Value()
	if src.err != nil {
		return nil, fmt.Errorf("generate value: %w", src.err)
	}
	return v, nil
}

// consumed adapts a ConsumeFuzzer to source. After the first failed read
// every draw returns zero, which keeps the remaining generation small.
type consumed struct {
	c   *fuzz.ConsumeFuzzer
	err error
}

func (s *consumed) IntN(n int) int {
	if s.err != nil || n <= 1 {
		return 0
	}
	if n <= math.MaxUint8+1 {
		b, err := s.c.GetByte()
		if err != nil {
			s.err = err
			return 0
		}
		return int(b) % n
	}
	return int(s.Uint32() % uint32(n))
}

func (s *consumed) Uint32() uint32 {
	if s.err != nil {
		return 0
	}
	v, err := s.c.GetUint32()
	if err != nil {
		s.err = err
	}
	return v
}

func (s *consumed) Uint64() uint64 {
	if s.err != nil {
		return 0
	}
	v, err := s.c.GetUint64()
	if err != nil {
		s.err = err
	}
	return v
}
