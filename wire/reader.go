package wire

import (
	"github.com/wippyai/protobind/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

type mode uint8

const (
	modeField   mode = iota // slot of a message
	modeElement             // element of an array
	modeValue               // detached value
)

// Reader gives typed read access to one field value: a message slot, an
// element of a repeated field, or a detached value such as a map key.
type Reader struct {
	arena *Arena
	fd    protoreflect.FieldDescriptor
	val   Value
	msg   MessageID
	arr   ArrayID
	index int
	mode  mode
}

// NewReader reads field fd of message msg. A zero msg reads as an absent
// message, so every getter yields the field default.
func NewReader(a *Arena, msg MessageID, fd protoreflect.FieldDescriptor) Reader {
	return Reader{arena: a, fd: fd, msg: msg, index: -1, mode: modeField}
}

// NewValueReader reads a detached value described by fd.
func NewValueReader(a *Arena, v Value, fd protoreflect.FieldDescriptor) Reader {
	return Reader{arena: a, fd: fd, val: v, index: -1, mode: modeValue}
}

// NewDefaultReader reads the declared default of fd.
func NewDefaultReader(a *Arena, fd protoreflect.FieldDescriptor) Reader {
	return NewValueReader(a, Value{}, fd)
}

// Arena returns the arena the reader points into.
func (r Reader) Arena() *Arena { return r.arena }

// Descriptor returns the field descriptor.
func (r Reader) Descriptor() protoreflect.FieldDescriptor { return r.fd }

// Index returns the element index, or -1 when the reader is not indexed.
func (r Reader) Index() int { return r.index }

func (r Reader) load() Value {
	switch r.mode {
	case modeField:
		if r.msg == 0 {
			return Value{}
		}
		return r.arena.Get(r.msg, r.fd)
	case modeElement:
		return r.arena.ArrayAt(r.arr, r.index)
	}
	return r.val
}

// unindexedContainer reports whether r addresses a whole repeated field.
func (r Reader) unindexedContainer() bool {
	return r.index < 0 && (r.fd.IsList() || r.fd.IsMap())
}

func (r Reader) IsBool() bool { return r.fd.Kind() == protoreflect.BoolKind }
func (r Reader) IsEnum() bool { return r.fd.Kind() == protoreflect.EnumKind }
func (r Reader) IsInt32() bool { return r.scalar() == KindInt32 && !r.IsEnum() }
func (r Reader) IsUint32() bool { return r.scalar() == KindUint32 }
func (r Reader) IsInt64() bool { return r.scalar() == KindInt64 }
func (r Reader) IsUint64() bool { return r.scalar() == KindUint64 }
func (r Reader) IsFloat() bool { return r.fd.Kind() == protoreflect.FloatKind }
func (r Reader) IsDouble() bool { return r.fd.Kind() == protoreflect.DoubleKind }
func (r Reader) IsString() bool { return r.fd.Kind() == protoreflect.StringKind }
func (r Reader) IsBytes() bool { return r.fd.Kind() == protoreflect.BytesKind }
func (r Reader) IsMessage() bool { return r.scalar() == KindMessage && !r.fd.IsMap() }
func (r Reader) IsRepeated() bool { return r.fd.Cardinality() == protoreflect.Repeated }
func (r Reader) IsMap() bool { return r.fd.IsMap() && r.index < 0 }

// IsNumber reports an integer or floating point field, enums excluded.
func (r Reader) IsNumber() bool {
	return r.scalar().IsNumeric() && !r.IsEnum()
}

// IsArray reports an unindexed repeated non-map field.
func (r Reader) IsArray() bool {
	return r.fd.IsList() && r.index < 0
}

func (r Reader) scalar() Kind {
	return ScalarKind(r.fd.Kind())
}

// Has reports whether a value is present.
func (r Reader) Has() bool {
	v := r.load()
	switch v.kind {
	case KindEmpty:
		return false
	case KindArray:
		return r.arena.ArrayLen(v.Array()) > 0
	case KindMap:
		return r.arena.MapLen(v.Map()) > 0
	}
	return true
}

func (r Reader) mismatch(want Kind) error {
	return errors.New(errors.PhaseDecode, errors.KindFieldKindMismatch).
		Path(string(r.fd.Name())).
		WireType(r.describe()).
		Detail("read as %s", want).
		Build()
}

func (r Reader) describe() string {
	switch {
	case r.unindexedContainer() && r.fd.IsMap():
		return "map"
	case r.unindexedContainer():
		return "repeated " + r.fd.Kind().String()
	}
	return r.fd.Kind().String()
}

// leaf returns the scalar value of class k, substituting the default for
// an unset value.
func (r Reader) leaf(k Kind) (Value, error) {
	if r.unindexedContainer() || r.scalar() != k {
		return Value{}, r.mismatch(k)
	}
	v := r.load()
	if v.IsEmpty() {
		return defaultValue(r.fd), nil
	}
	return v, nil
}

func (r Reader) Bool() (bool, error) {
	v, err := r.leaf(KindBool)
	return v.Bool(), err
}

func (r Reader) Int32() (int32, error) {
	v, err := r.leaf(KindInt32)
	return v.Int32(), err
}

func (r Reader) Uint32() (uint32, error) {
	v, err := r.leaf(KindUint32)
	return v.Uint32(), err
}

func (r Reader) Int64() (int64, error) {
	v, err := r.leaf(KindInt64)
	return v.Int64(), err
}

func (r Reader) Uint64() (uint64, error) {
	v, err := r.leaf(KindUint64)
	return v.Uint64(), err
}

func (r Reader) Float() (float32, error) {
	v, err := r.leaf(KindFloat)
	return v.Float32(), err
}

func (r Reader) Double() (float64, error) {
	v, err := r.leaf(KindDouble)
	return v.Float64(), err
}

// Enum reads an enum field as its number.
func (r Reader) Enum() (protoreflect.EnumNumber, error) {
	if !r.IsEnum() {
		return 0, r.mismatch(KindInt32)
	}
	v, err := r.leaf(KindInt32)
	return protoreflect.EnumNumber(v.Int32()), err
}

// StringView returns the string or bytes payload as a view into the arena.
func (r Reader) StringView() ([]byte, error) {
	v, err := r.leaf(KindString)
	return v.Bytes(), err
}

// Bytes is StringView under the name used for bytes fields.
func (r Reader) Bytes() ([]byte, error) {
	return r.StringView()
}

// SubMessage returns the handle of a message value; 0 when absent.
func (r Reader) SubMessage() (MessageID, error) {
	if r.unindexedContainer() || r.scalar() != KindMessage {
		return 0, r.mismatch(KindMessage)
	}
	return r.load().Message(), nil
}

// MessageDescriptor returns the type of a message field.
func (r Reader) MessageDescriptor() protoreflect.MessageDescriptor {
	return r.fd.Message()
}

// ArraySize returns the element count of an unindexed repeated field.
func (r Reader) ArraySize() int {
	if !r.IsArray() {
		return 0
	}
	return r.arena.ArrayLen(r.load().Array())
}

// Element returns a reader for element i of an unindexed repeated field.
func (r Reader) Element(i int) (Reader, error) {
	if !r.IsArray() {
		return Reader{}, r.mismatch(KindArray)
	}
	n := r.ArraySize()
	if i < 0 || i >= n {
		return Reader{}, errors.OutOfBounds(errors.PhaseDecode, []string{string(r.fd.Name())}, i, n)
	}
	return Reader{
		arena: r.arena,
		fd:    r.fd,
		arr:   r.load().Array(),
		index: i,
		mode:  modeElement,
	}, nil
}

// Map returns the handle of a map field; 0 when absent.
func (r Reader) Map() (MapID, error) {
	if !r.IsMap() {
		return 0, r.mismatch(KindMap)
	}
	return r.load().Map(), nil
}

// MapSize returns the entry count of a map field.
func (r Reader) MapSize() int {
	id, err := r.Map()
	if err != nil {
		return 0
	}
	return r.arena.MapLen(id)
}

// Entries returns a cursor over the entries of a map field.
func (r Reader) Entries() (*MapCursor, error) {
	id, err := r.Map()
	if err != nil {
		return nil, err
	}
	return &MapCursor{arena: r.arena, id: id, key: r.fd.MapKey(), val: r.fd.MapValue()}, nil
}

// Dispatch reports whether the value needs recursion: maps, messages and
// unindexed arrays return their handle with true. Leaves return the value,
// defaulted when unset, with false.
func (r Reader) Dispatch() (Value, bool) {
	if r.unindexedContainer() || r.scalar() == KindMessage {
		return r.load(), true
	}
	v := r.load()
	if v.IsEmpty() {
		v = defaultValue(r.fd)
	}
	return v, false
}

// MapCursor iterates over map entries in insertion order.
type MapCursor struct {
	arena *Arena
	key   protoreflect.FieldDescriptor
	val   protoreflect.FieldDescriptor
	id    MapID
	pos   int
}

// Len returns the total number of entries.
func (c *MapCursor) Len() int {
	return c.arena.MapLen(c.id)
}

// Next returns readers for the next entry, or ok=false when exhausted.
func (c *MapCursor) Next() (key, val Reader, ok bool) {
	if c.pos >= c.arena.MapLen(c.id) {
		return Reader{}, Reader{}, false
	}
	k, v := c.arena.MapEntry(c.id, c.pos)
	c.pos++
	return NewValueReader(c.arena, k, c.key), NewValueReader(c.arena, v, c.val), true
}

// defaultValue converts the declared default of fd into a Value.
// Messages and containers default to the empty value.
func defaultValue(fd protoreflect.FieldDescriptor) Value {
	if fd.IsList() || fd.IsMap() {
		return Value{}
	}
	d := fd.Default()
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return BoolValue(d.Bool())
	case protoreflect.EnumKind:
		return Int32Value(int32(d.Enum()))
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return Int32Value(int32(d.Int()))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return Uint32Value(uint32(d.Uint()))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return Int64Value(d.Int())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return Uint64Value(d.Uint())
	case protoreflect.FloatKind:
		return FloatValue(float32(d.Float()))
	case protoreflect.DoubleKind:
		return DoubleValue(d.Float())
	case protoreflect.StringKind:
		return StringValue(d.String())
	case protoreflect.BytesKind:
		return BytesValue(d.Bytes())
	}
	return Value{}
}
