package native

// Kind classifies a Go type for field dispatch.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindEnum
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt
	KindByte
	KindUint16
	KindUint32
	KindUint64
	KindUint
	KindFloat32
	KindFloat64
	KindString
	KindName
	KindText
	KindObjectPath
	KindStruct
	KindVariant
	KindPointer
	KindSlice
	KindSet
	KindMap

	// KindCount is the number of kinds, for sizing dispatch tables.
	KindCount
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindBool:       "bool",
	KindEnum:       "enum",
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindInt:        "int",
	KindByte:       "byte",
	KindUint16:     "uint16",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindUint:       "uint",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindString:     "string",
	KindName:       "name",
	KindText:       "text",
	KindObjectPath: "objectpath",
	KindStruct:     "struct",
	KindVariant:    "variant",
	KindPointer:    "pointer",
	KindSlice:      "slice",
	KindSet:        "set",
	KindMap:        "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsInteger reports signed and unsigned integer kinds, enums excluded.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint
}

// IsNumeric reports integer and floating point kinds.
func (k Kind) IsNumeric() bool {
	return k >= KindInt8 && k <= KindFloat64
}

// IsContainer reports kinds holding a variable number of elements.
func (k Kind) IsContainer() bool {
	return k == KindSlice || k == KindSet || k == KindMap
}

// IsStringLike reports kinds carried as protobuf strings.
func (k Kind) IsStringLike() bool {
	return k >= KindString && k <= KindObjectPath
}
