package wire

import "google.golang.org/protobuf/reflect/protoreflect"

// Kind is the storage class of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindBool
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat
	KindDouble
	KindString
	KindMessage
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindEmpty:   "empty",
	KindBool:    "bool",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindMessage: "message",
	KindArray:   "array",
	KindMap:     "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsNumeric reports whether k holds an integer or floating point number.
func (k Kind) IsNumeric() bool {
	return k >= KindInt32 && k <= KindDouble
}

// ScalarKind maps a protobuf field kind to the storage class of one element.
func ScalarKind(k protoreflect.Kind) Kind {
	switch k {
	case protoreflect.BoolKind:
		return KindBool
	case protoreflect.EnumKind, protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return KindInt32
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return KindUint32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return KindInt64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return KindUint64
	case protoreflect.FloatKind:
		return KindFloat
	case protoreflect.DoubleKind:
		return KindDouble
	case protoreflect.StringKind, protoreflect.BytesKind:
		return KindString
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return KindMessage
	}
	return KindEmpty
}

// FieldKind returns the storage class of a whole field slot: KindMap for
// maps, KindArray for other repeated fields, ScalarKind otherwise.
func FieldKind(fd protoreflect.FieldDescriptor) Kind {
	switch {
	case fd.IsMap():
		return KindMap
	case fd.IsList():
		return KindArray
	}
	return ScalarKind(fd.Kind())
}

func packable(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.MessageKind, protoreflect.GroupKind:
		return false
	}
	return true
}
