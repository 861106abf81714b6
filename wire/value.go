package wire

import (
	"math"
	"unsafe"
)

// MessageID, ArrayID and MapID are 1-based handles into an Arena.
// The zero handle means absent.
type (
	MessageID uint32
	ArrayID   uint32
	MapID     uint32
)

// Value is a tagged union holding one field value. Exactly one payload is
// meaningful for a given Kind: num carries scalars (floats as IEEE bits)
// and handles, str carries string and bytes views.
type Value struct {
	str  []byte
	num  uint64
	kind Kind
}

func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

func Int32Value(v int32) Value { return Value{kind: KindInt32, num: uint64(int64(v))} }
func Uint32Value(v uint32) Value { return Value{kind: KindUint32, num: uint64(v)} }
func Int64Value(v int64) Value { return Value{kind: KindInt64, num: uint64(v)} }
func Uint64Value(v uint64) Value { return Value{kind: KindUint64, num: v} }
func FloatValue(v float32) Value { return Value{kind: KindFloat, num: uint64(math.Float32bits(v))} }
func DoubleValue(v float64) Value { return Value{kind: KindDouble, num: math.Float64bits(v)} }
func BytesValue(b []byte) Value { return Value{kind: KindString, str: b} }
func MessageValue(id MessageID) Value { return Value{kind: KindMessage, num: uint64(id)} }
func ArrayValue(id ArrayID) Value { return Value{kind: KindArray, num: uint64(id)} }
func MapValue(id MapID) Value { return Value{kind: KindMap, num: uint64(id)} }

// StringValue wraps s without copying. The caller must not let the value
// outlive s; Writers copy into the arena instead.
func StringValue(s string) Value {
	return Value{kind: KindString, str: unsafe.Slice(unsafe.StringData(s), len(s))}
}

// Kind returns the active storage class.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether no payload is set.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

func (v Value) Bool() bool { return v.num != 0 }
func (v Value) Int32() int32 { return int32(v.num) }
func (v Value) Uint32() uint32 { return uint32(v.num) }
func (v Value) Int64() int64 { return int64(v.num) }
func (v Value) Uint64() uint64 { return v.num }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.num)) }
func (v Value) Float64() float64 { return math.Float64frombits(v.num) }
func (v Value) Message() MessageID { return MessageID(v.num) }
func (v Value) Array() ArrayID { return ArrayID(v.num) }
func (v Value) Map() MapID { return MapID(v.num) }

// Bytes returns the string or bytes payload as a view. The view is only
// valid while the owning arena is live.
func (v Value) Bytes() []byte { return v.str }

// Str returns a copy of the string payload.
func (v Value) Str() string { return string(v.str) }

// Int converts any numeric or bool value to int64.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindBool, KindUint32, KindUint64:
		return int64(v.num), true
	case KindInt32:
		return int64(int32(v.num)), true
	case KindInt64:
		return int64(v.num), true
	case KindFloat:
		return int64(v.Float32()), true
	case KindDouble:
		return int64(v.Float64()), true
	}
	return 0, false
}

// Uint converts any numeric or bool value to uint64.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case KindBool, KindUint32, KindUint64:
		return v.num, true
	case KindInt32:
		return uint64(int64(int32(v.num))), true
	case KindInt64:
		return v.num, true
	case KindFloat:
		return uint64(v.Float32()), true
	case KindDouble:
		return uint64(v.Float64()), true
	}
	return 0, false
}

// Float converts any numeric or bool value to float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return float64(v.Float32()), true
	case KindDouble:
		return v.Float64(), true
	case KindUint32, KindUint64:
		return float64(v.num), true
	case KindBool, KindInt32, KindInt64:
		i, _ := v.Int()
		return float64(i), true
	}
	return 0, false
}

// isZero reports whether v is the proto3 zero value of its kind.
// Negative zero floats are not zero.
func (v Value) isZero() bool {
	return v.num == 0 && len(v.str) == 0
}

// mapKey is the comparable form of a map key Value.
type mapKey struct {
	str  string
	num  uint64
	kind Kind
}

func (v Value) key() mapKey {
	if v.kind == KindString {
		return mapKey{kind: v.kind, str: string(v.str)}
	}
	return mapKey{kind: v.kind, num: v.num}
}
