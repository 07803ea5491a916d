package witvalue

import (
	"fmt"

	"github.com/wippyai/wasm-rpc/errors"
)

// Validate checks the structural invariants of w without decoding it: the
// sequence is non-empty, every referenced index is in range and greater than
// the position of the node holding it, and limits are respected.
//
// Validate runs in a single forward pass and never recurses, so it is safe on
// arbitrarily deep input.
func Validate(w WitValue, limits Limits) error {
	n := len(w.Nodes)
	if n == 0 {
		return errors.Empty(errors.PhaseValidate)
	}
	if limits.nodesExceeded(n) {
		return errors.LimitExceeded(errors.PhaseValidate, nil, "node count", limits.MaxNodes)
	}

	// depth[i] is the deepest path from the root seen so far; forward-only
	// references mean a node's depth is final before its children are visited.
	var depth []int
	if limits.MaxDepth > 0 {
		depth = make([]int, n)
		depth[0] = 1
	}

	for i, node := range w.Nodes {
		if node == nil {
			return errors.InvalidData(errors.PhaseValidate, errors.NodePath(int32(i)), "nil node")
		}
		if !known(node) {
			return errors.New(errors.PhaseValidate, errors.KindInvalidData).
				Path(errors.NodePath(int32(i))...).
				Value(fmt.Sprintf("%T", node)).
				Detail("unsupported node type %T", node).
				Build()
		}
		for _, c := range Children(node) {
			if c < 0 || int(c) >= n {
				return errors.OutOfBounds(errors.PhaseValidate, errors.NodePath(int32(i)), int(c), n)
			}
			if int(c) <= i {
				return errors.BackwardReference(errors.PhaseValidate, errors.NodePath(int32(i)), int32(i), int32(c))
			}
			if depth != nil && depth[i] > 0 {
				if d := depth[i] + 1; d > depth[c] {
					depth[c] = d
					if limits.depthExceeded(d) {
						return errors.LimitExceeded(errors.PhaseValidate, errors.NodePath(int32(c)), "nesting depth", limits.MaxDepth)
					}
				}
			}
		}
	}
	return nil
}
