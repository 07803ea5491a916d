// Package canon moves wit-values in and out of WASM linear memory using the
// Canonical ABI layout of golem:rpc/types@0.1.0.
//
// # Wire Layout
//
// A wit-value lowers to a list<wit-node>: a pointer to a contiguous node
// array plus its length. Each node is a variant with a u8 discriminant:
//
//	Offset  Field
//	──────────────────────────────────────────────
//	0       case (0 record-value ... 20 prim-string)
//	8       payload
//
//	Case            Payload
//	──────────────────────────────────────────────
//	record/tuple/   list<node-index>  ptr@8 len@12
//	list
//	variant         case u32@8, option<s32>@12
//	enum            u32@8
//	flags           list<bool>        ptr@8 len@12
//	option          tag@8, s32@12
//	result          tag@8 (1 = err), option<s32>@12
//	prim-*          scalar@8
//	prim-string     ptr@8 len@12
//
// Nodes are 24 bytes with 8-byte alignment. The numbers are derived from the
// wit definitions returned by WitValueType, not hard-coded.
//
// # Key Types
//
//	Lowered   - node array location and the allocations backing it
//	Sandbox   - standalone wazero memory with a bump cabi_realloc
//
// # Flow
//
//  1. witvalue.FromValue(v) → WitValue
//  2. Lower(ctx, w, mem, alloc) → Lowered{Ptr, Len}
//  3. guest call, or Lift(ctx, mem, ptr, len, limits) → WitValue
//  4. witvalue.ToValue(w) → Value
//
// Lift treats memory as untrusted. Every read is bounds-checked and the
// result is validated before it is returned.
package canon
