// Package witvalue converts component-model values to and from their flat
// wire encoding.
//
// # Encoding
//
// A WitValue is a sequence of WitNodes. Containers refer to their children by
// position instead of holding them, so a value can cross a component boundary
// that cannot share native pointers:
//
//	record(u32(7), string("hi"), some(bool(true)))
//
//	Index  Node
//	───────────────────────────
//	0      RecordNode{1, 2, 3}
//	1      PrimU32(7)
//	2      PrimString("hi")
//	3      OptionNode{4}
//	4      PrimBool(true)
//
// Node 0 is always the root and every child index is greater than the
// position of the node that holds it.
//
// # Building
//
// Builder is the low-level arena: containers are reserved before their
// children exist and finished once the children's positions are known.
// Encode and FromValue drive it from a value.Value; ValueBuilder offers a
// fluent interface for hand-written values.
//
// # Decoding
//
// A WitValue may come from an untrusted peer. Decode bounds checks every
// index, rejects references that do not point forward, and enforces Limits on
// nesting depth and decoded node count. Validate checks the same structure
// without materializing a value, and Pointer reads individual nodes in place.
//
// # Key Types
//
//	WitValue      - Flat node sequence
//	Builder       - Reserve/finish node arena
//	ValueBuilder  - Fluent construction
//	Codec         - Encode/Decode with fixed limits and logging
//	Pointer       - In-place node reader
//
// # Error Handling
//
// Decode and Validate failures are *errors.Error values naming the offending
// node path. Builder misuse panics with an error of kind contract.
package witvalue
