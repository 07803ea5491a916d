// Package value defines the in-memory tree form of a component-model value.
//
// A Value is a sealed tagged union: one Go type per case, nested containers
// hold child Values directly.
//
//	v := value.Record{
//		value.U32(7),
//		value.String("hi"),
//		value.Some(value.Bool(true)),
//	}
//
// Optional payloads are expressed with nil: a Variant without Payload is a unit
// case, an Option with nil Value is none, and a Result with nil Value is a unit
// arm. Equal compares structurally with IEEE-754 float semantics.
//
// The flattened wire form lives in the witvalue package.
package value
