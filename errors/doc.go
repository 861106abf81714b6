// Package errors provides structured error types for protobind.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/wire type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
//		Path("Player", "score").
//		GoType("string").
//		WireType("int32").
//		Detail("string cannot feed an int32 field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.KindMismatch(errors.PhaseEncode, path, "string", "int32")
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 10, 5)
//
// The package-level sentinels match on Kind regardless of phase:
//
//	if errors.Is(err, protoerrors.SchemaNotFound) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
