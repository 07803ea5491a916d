package witvalue

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-rpc/value"
)

// Codec converts between Value and WitValue under fixed limits.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	logger *zap.Logger
	limits Limits
}

// Option configures a Codec.
type Option func(*Codec)

// WithLimits sets the depth and node caps.
func WithLimits(l Limits) Option {
	return func(c *Codec) {
		c.limits = l
	}
}

// WithLogger sets the logger used to report rejected input.
func WithLogger(l *zap.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCodec returns a codec using DefaultLimits unless configured otherwise.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		logger: Logger(),
		limits: DefaultLimits,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limits returns the codec's limits.
func (c *Codec) Limits() Limits { return c.limits }

// Encode flattens v. It fails only on a nil value or when a limit is exceeded.
func (c *Codec) Encode(v value.Value) (WitValue, error) {
	w, err := Encode(v, c.limits)
	if err != nil {
		c.logger.Debug("encode rejected", zap.Error(err))
		return WitValue{}, err
	}
	return w, nil
}

// Decode reconstructs the value held by w.
func (c *Codec) Decode(w WitValue) (value.Value, error) {
	v, err := Decode(w, c.limits)
	if err != nil {
		c.logger.Debug("decode rejected",
			zap.Int("nodes", len(w.Nodes)),
			zap.Error(err),
		)
		return nil, err
	}
	return v, nil
}

// Validate checks w's structure without decoding it.
func (c *Codec) Validate(w WitValue) error {
	if err := Validate(w, c.limits); err != nil {
		c.logger.Debug("validation failed",
			zap.Int("nodes", len(w.Nodes)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RoundTrip encodes v and decodes the result.
func (c *Codec) RoundTrip(v value.Value) (value.Value, WitValue, error) {
	w, err := c.Encode(v)
	if err != nil {
		return nil, WitValue{}, err
	}
	out, err := c.Decode(w)
	if err != nil {
		return nil, w, err
	}
	return out, w, nil
}
