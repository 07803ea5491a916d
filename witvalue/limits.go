package witvalue

// Limits caps the resources a single encode or decode may use.
// A zero field means unlimited.
type Limits struct {
	// MaxDepth is the deepest allowed nesting; a scalar root has depth 1.
	MaxDepth int
	// MaxNodes is the largest allowed node count. During decode it also
	// bounds the number of nodes materialized, which matters when several
	// containers reference the same child.
	MaxNodes int
}

const (
	DefaultMaxDepth = 512
	DefaultMaxNodes = 1 << 20
)

// DefaultLimits is used by ToValue and by codecs created without WithLimits.
var DefaultLimits = Limits{
	MaxDepth: DefaultMaxDepth,
	MaxNodes: DefaultMaxNodes,
}

// Unlimited disables all caps.
var Unlimited = Limits{}

func (l Limits) depthExceeded(depth int) bool {
	return l.MaxDepth > 0 && depth > l.MaxDepth
}

func (l Limits) nodesExceeded(n int) bool {
	return l.MaxNodes > 0 && n > l.MaxNodes
}
