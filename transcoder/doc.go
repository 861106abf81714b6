// Package transcoder converts Go structs to and from protobuf messages
// described by runtime schema.
//
// # Overview
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ Go struct ←→ [Encoder/Decoder] ←→ wire.Arena ←→ []byte       │
//	└──────────────────────────────────────────────────────────────┘
//
// An Encoder walks the message fields of the descriptor bound to a Go type,
// finds the Go field with the same name and hands both to the visitor for
// the field's native.Kind. Visitors write through a wire.Writer into a
// pooled arena, which is then marshaled. A Decoder parses the whole
// payload into an arena first and then runs the read side of the same
// visitors.
//
// # Field Matching
//
// Names match exactly and case-sensitively. The Go name is the protobind
// struct tag when present, the field name otherwise:
//
//	message Item { string name = 1; uint32 count = 2; }
//
//	type Item struct {
//		Name  string `protobind:"name"`
//		Count uint32 `protobind:"count"`
//	}
//
// A schema field with no Go counterpart, or whose kinds disagree, is
// skipped and reported; the rest of the message still converts.
//
// # Conversions
//
//	Go kind               Encodes to                 Decodes from
//	──────────────────────────────────────────────────────────────────
//	bool                  bool                       bool, number, "true"
//	int8/int16/int32      int32 class, enum          any number, numeric string
//	byte/uint16           int32 or uint32 class      any number (byte: 0-255)
//	uint32, int64, ...    same storage class         any number, numeric string
//	enum                  enum or int32 (number)     number, name
//	string                string, bytes              string, bytes, number
//	native.Name/Text      string                     string
//	TextMarshaler         string, bytes              string, bytes
//	[]byte, [N]byte       bytes (raw copy)           bytes
//	[]T, [N]T, set        repeated T                 repeated T
//	map[K]V               map<K, V>                  map<K, V>
//	struct, *struct       message                    message
//	Variant               message (clone)            message (captured)
//
// A singular wire field read into a slice or set yields one element; a
// repeated wire field read into a scalar yields its first element.
//
// # Errors
//
// Missing schema, malformed payloads and exceeding Config.MaxDepth abort
// the call. Field-level problems are logged at Warn and passed to
// Config.Diagnostics.
package transcoder
