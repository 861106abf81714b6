// Package wire holds protobuf messages in an arena and converts them to and
// from the binary wire format.
//
// # Arena
//
// An Arena owns every payload built during one call. Messages, arrays and
// maps are addressed by typed 1-based handles; the zero handle means
// absent:
//
//	┌──────────────────────────────────────────────────────┐
//	│ msgs   [desc, off, n] ──→ slots [Value × n]          │
//	│ arrays [fd, elems]                                   │
//	│ maps   [fd, keys, vals, index]                       │
//	│ data   copied string and bytes payloads              │
//	└──────────────────────────────────────────────────────┘
//
// Reset or Release invalidates every handle and byte view at once. Pooled
// arenas come from AcquireArena.
//
// # Values
//
// A Value is a tagged union whose Kind is the storage class of a field:
//
//	Field kind                         Storage class
//	──────────────────────────────────────────────────
//	bool                               KindBool
//	int32, sint32, sfixed32, enum      KindInt32
//	uint32, fixed32                    KindUint32
//	int64, sint64, sfixed64            KindInt64
//	uint64, fixed64                    KindUint64
//	float / double                     KindFloat / KindDouble
//	string, bytes                      KindString
//	message, group                     KindMessage
//	repeated                           KindArray
//	map                                KindMap
//
// # Reader and Writer
//
// A Reader addresses one field of a message, one element of a repeated
// field, or a detached value such as a map key. Getters check the declared
// field kind and substitute the declared default for unset values.
// Dispatch is the single decision point between leaves and containers.
//
// A Writer adds setters. Bound writers reject kind mismatches without
// storing; detached writers store unchecked and InsertMapEntry validates.
//
// # Wire Codec
//
// Marshal writes fields in number order, packs repeated scalars, and
// re-emits unknown fields. Unmarshal accepts packed and unpacked input,
// merges repeated singular messages, and keeps fields it cannot interpret
// as unknown bytes.
package wire
