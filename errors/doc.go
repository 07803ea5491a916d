// Package errors provides structured error types for the wasm-rpc library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the node path that led to the failure, the offending value
// and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Path(errors.NodePath(0, 3)...).
//		Detail("invalid Unicode scalar value: 0x%X", r).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//	err := errors.LimitExceeded(errors.PhaseEncode, path, "depth", 512)
//
// Builder contract violations in the witvalue package panic with a KindContract
// error; every failure reachable from untrusted input is returned instead.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
