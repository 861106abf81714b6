package wire

import (
	"github.com/wippyai/protobind/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Writer extends Reader with setters. A Writer bound to a message slot or
// array element checks every write against the declared field kind and
// stores nothing on mismatch. A detached Writer, used to build map keys and
// values, stores unchecked; InsertMapEntry validates the result.
type Writer struct {
	Reader
}

// NewWriter writes field fd of message msg.
func NewWriter(a *Arena, msg MessageID, fd protoreflect.FieldDescriptor) *Writer {
	return &Writer{Reader: NewReader(a, msg, fd)}
}

// NewValueWriter builds a detached value described by fd.
func NewValueWriter(a *Arena, fd protoreflect.FieldDescriptor) *Writer {
	return &Writer{Reader: NewValueReader(a, Value{}, fd)}
}

// Value returns the current value.
func (w *Writer) Value() Value {
	return w.load()
}

func (w *Writer) writeMismatch(want Kind) error {
	return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
		Path(string(w.fd.Name())).
		WireType(w.describe()).
		Detail("write %s", want).
		Build()
}

func (w *Writer) store(v Value) error {
	switch w.mode {
	case modeValue:
		w.val = v
		return nil
	case modeElement:
		arr := w.arena.array(w.arr)
		if arr == nil || w.index >= len(arr.elems) {
			return errors.OutOfBounds(errors.PhaseEncode, []string{string(w.fd.Name())}, w.index, w.arena.ArrayLen(w.arr))
		}
		arr.elems[w.index] = v
		return nil
	}
	return w.arena.set(w.msg, w.fd, v)
}

func (w *Writer) storeScalar(v Value) error {
	if w.mode != modeValue && (w.unindexedContainer() || w.scalar() != v.kind) {
		return w.writeMismatch(v.kind)
	}
	return w.store(v)
}

func (w *Writer) SetBool(b bool) error { return w.storeScalar(BoolValue(b)) }
func (w *Writer) SetInt32(v int32) error { return w.storeScalar(Int32Value(v)) }
func (w *Writer) SetUint32(v uint32) error { return w.storeScalar(Uint32Value(v)) }
func (w *Writer) SetInt64(v int64) error { return w.storeScalar(Int64Value(v)) }
func (w *Writer) SetUint64(v uint64) error { return w.storeScalar(Uint64Value(v)) }
func (w *Writer) SetFloat(v float32) error { return w.storeScalar(FloatValue(v)) }
func (w *Writer) SetDouble(v float64) error { return w.storeScalar(DoubleValue(v)) }

// SetEnum writes an enum number. Enum fields accept SetInt32 as well.
func (w *Writer) SetEnum(n protoreflect.EnumNumber) error {
	if w.mode != modeValue && !w.IsEnum() {
		return w.writeMismatch(KindInt32)
	}
	return w.store(Int32Value(int32(n)))
}

// SetString copies s into the arena.
func (w *Writer) SetString(s string) error {
	if w.mode != modeValue && (w.unindexedContainer() || w.scalar() != KindString) {
		return w.writeMismatch(KindString)
	}
	return w.store(BytesValue(w.arena.copyBytes([]byte(s))))
}

// SetBytes copies b into the arena.
func (w *Writer) SetBytes(b []byte) error {
	if w.mode != modeValue && (w.unindexedContainer() || w.scalar() != KindString) {
		return w.writeMismatch(KindString)
	}
	return w.store(BytesValue(w.arena.copyBytes(b)))
}

// SetMessage stores an existing message handle. The message type must match.
func (w *Writer) SetMessage(id MessageID) error {
	if w.unindexedContainer() || w.scalar() != KindMessage {
		return w.writeMismatch(KindMessage)
	}
	md := w.arena.Descriptor(id)
	if md == nil || md.FullName() != w.fd.Message().FullName() {
		return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
			Path(string(w.fd.Name())).
			WireType(string(w.fd.Message().FullName())).
			Detail("message of another type").
			Build()
	}
	return w.store(MessageValue(id))
}

// NewMessage allocates an empty message of the field's type and stores it.
func (w *Writer) NewMessage() (MessageID, error) {
	if w.unindexedContainer() || w.scalar() != KindMessage {
		return 0, w.writeMismatch(KindMessage)
	}
	id := w.arena.NewMessage(w.fd.Message())
	if err := w.store(MessageValue(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// Clear unsets the value.
func (w *Writer) Clear() error {
	if w.mode == modeField {
		s, err := w.arena.slot(w.msg, w.fd)
		if err != nil {
			return err
		}
		*s = Value{}
		return nil
	}
	return w.store(Value{})
}

func (w *Writer) ensureArray() (ArrayID, error) {
	if !w.IsArray() || w.mode == modeElement {
		return 0, w.writeMismatch(KindArray)
	}
	if id := w.load().Array(); id != 0 {
		return id, nil
	}
	id := w.arena.NewArray(w.fd)
	if err := w.store(ArrayValue(id)); err != nil {
		return 0, err
	}
	return id, nil
}

// Resize sets the element count of a repeated field. New elements are unset
// and encode as the zero value.
func (w *Writer) Resize(n int) error {
	id, err := w.ensureArray()
	if err != nil {
		return err
	}
	w.arena.ArrayResize(id, n)
	return nil
}

// Element returns a writer for element i of a repeated field, growing the
// array as needed.
func (w *Writer) Element(i int) (*Writer, error) {
	if i < 0 {
		return nil, errors.OutOfBounds(errors.PhaseEncode, []string{string(w.fd.Name())}, i, w.ArraySize())
	}
	id, err := w.ensureArray()
	if err != nil {
		return nil, err
	}
	if w.arena.ArrayLen(id) <= i {
		w.arena.ArrayResize(id, i+1)
	}
	return &Writer{Reader: Reader{
		arena: w.arena,
		fd:    w.fd,
		arr:   id,
		index: i,
		mode:  modeElement,
	}}, nil
}

// MapKey returns a detached writer for building a key of this map field.
func (w *Writer) MapKey() *Writer {
	return NewValueWriter(w.arena, w.fd.MapKey())
}

// MapValue returns a detached writer for building a value of this map field.
func (w *Writer) MapValue() *Writer {
	return NewValueWriter(w.arena, w.fd.MapValue())
}

// InsertMapEntry adds or replaces one entry. Key and value must match the
// entry's declared kinds.
func (w *Writer) InsertMapEntry(key, val Value) error {
	if !w.IsMap() {
		return w.writeMismatch(KindMap)
	}
	kfd, vfd := w.fd.MapKey(), w.fd.MapValue()
	if ScalarKind(kfd.Kind()) != key.kind {
		return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
			Path(string(w.fd.Name()), "key").
			WireType(kfd.Kind().String()).
			Detail("key of kind %s", key.kind).
			Build()
	}
	if ScalarKind(vfd.Kind()) != val.kind {
		return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
			Path(string(w.fd.Name()), "value").
			WireType(vfd.Kind().String()).
			Detail("value of kind %s", val.kind).
			Build()
	}
	if val.kind == KindMessage {
		md := w.arena.Descriptor(val.Message())
		if md == nil || md.FullName() != vfd.Message().FullName() {
			return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
				Path(string(w.fd.Name()), "value").
				WireType(string(vfd.Message().FullName())).
				Detail("message of another type").
				Build()
		}
	}

	id := w.load().Map()
	if id == 0 {
		id = w.arena.NewMap(w.fd)
		if err := w.store(MapValue(id)); err != nil {
			return err
		}
	}
	w.arena.mapInsert(id, key, val)
	return nil
}
