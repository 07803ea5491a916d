// Package abi holds the Canonical ABI arithmetic shared by the canon package:
// overflow-checked size math, alignment, discriminant sizing and scalar
// validation rules for lifted values.
package abi
