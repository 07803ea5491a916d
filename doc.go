// Package wasmrpc carries dynamically typed values across a WebAssembly
// component boundary for remote procedure calls.
//
// A value travels in two forms: a recursive tree that producers and
// consumers work with, and a flat node table that can be copied into a
// guest's linear memory without sharing native pointers.
//
// # Architecture Overview
//
//	wasmrpc/             Root package with core Memory and Allocator interfaces
//	├── value/           Tree form: one Go type per component-model case
//	├── witvalue/        Flat form: node table, builder, encoder, decoder
//	├── canon/           Canonical ABI lowering/lifting of the flat form
//	├── errors/          Structured error types naming the offending node
//	└── cmd/witvalue/    Inspection, round-trip and fuzzing CLI
//
// # Quick Start
//
// Flatten a value and read it back:
//
//	v := value.Record{
//	    value.U32(7),
//	    value.String("hi"),
//	    value.Some(value.Bool(true)),
//	}
//
//	w := witvalue.FromValue(v) // 5 nodes, root at index 0
//
//	back, err := witvalue.ToValue(w)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Copy the flat form into a guest and lift it again:
//
//	low, err := canon.Lower(ctx, w, mem, alloc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer low.Free(alloc)
//
//	lifted, err := canon.Lift(ctx, mem, low.Ptr, low.Len, witvalue.DefaultLimits)
//
// # Untrusted Input
//
// A node table may come from a peer in another component. Decoding and
// lifting never panic on malformed input: every index is bounds checked,
// children must follow their parent, and nesting depth and node count are
// capped by witvalue.Limits.
//
// # Thread Safety
//
// Values, node tables and codecs are immutable and safe for concurrent
// readers. Builders belong to a single goroutine.
package wasmrpc
