// Package native classifies Go types for protobuf field dispatch.
//
// TypeOf walks a reflect.Type once and caches a Type tree holding the
// dispatch Kind, exported field offsets and container element types:
//
//	Go type                              Kind
//	────────────────────────────────────────────────
//	bool                                 KindBool
//	integer implementing Enum or         KindEnum
//	  protoreflect.Enum
//	int8 … int, uint8 … uint             KindInt8 … KindUint
//	float32, float64                     KindFloat32, KindFloat64
//	string                               KindString
//	Name (unique.Handle[string])         KindName
//	Text                                 KindText
//	TextMarshaler + TextUnmarshaler      KindObjectPath
//	struct                               KindStruct
//	implements Boxed                     KindVariant
//	*T                                   KindPointer
//	[]T                                  KindSlice
//	map[K]struct{}                       KindSet
//	map[K]V                              KindMap
//
// Struct fields map to message fields by exact name: the protobind tag
// when present, the Go field name otherwise. Fixed arrays [N]T become a
// field of element type T with Dim N.
//
//	type Player struct {
//		Level  int32     `protobind:"level"`
//		Scores [4]int32  `protobind:"scores"`
//		Secret string    `protobind:"-"`
//	}
package native
