// Package layout computes Canonical ABI size, alignment and offsets for WIT
// types.
//
// The canon package derives the in-memory shape of the wit-node variant from
// these numbers instead of hard-coding them:
//
//	Type                          Size  Align  Payload
//	──────────────────────────────────────────────────
//	list<T>, string               8     4      -
//	option<node-index>            8     4      4
//	tuple<u32, option<s32>>       12    4      -
//	result<option<s32>, ...>      12    4      4
//	wit-node                      24    8      8
package layout
