package wire

import (
	"cmp"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/wippyai/protobind/errors"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// MaxDepth bounds message nesting on both encode and decode.
const MaxDepth = 10000

var fieldOrderCache sync.Map // protoreflect.MessageDescriptor -> []protoreflect.FieldDescriptor

// fieldOrder returns the fields of md sorted by number.
func fieldOrder(md protoreflect.MessageDescriptor) []protoreflect.FieldDescriptor {
	if cached, ok := fieldOrderCache.Load(md); ok {
		return cached.([]protoreflect.FieldDescriptor)
	}
	fields := md.Fields()
	order := make([]protoreflect.FieldDescriptor, fields.Len())
	for i := range order {
		order[i] = fields.Get(i)
	}
	slices.SortFunc(order, func(a, b protoreflect.FieldDescriptor) int {
		return cmp.Compare(a.Number(), b.Number())
	})
	actual, _ := fieldOrderCache.LoadOrStore(md, order)
	return actual.([]protoreflect.FieldDescriptor)
}

// ForgetFile drops cached layouts for every message declared in fd, so an
// unregistered schema can be collected.
func ForgetFile(fd protoreflect.FileDescriptor) {
	forgetMessages(fd.Messages())
}

func forgetMessages(msgs protoreflect.MessageDescriptors) {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		fieldOrderCache.Delete(md)
		forgetMessages(md.Messages())
	}
}

func wireType(k protoreflect.Kind) protowire.Type {
	switch k {
	case protoreflect.BoolKind, protoreflect.EnumKind,
		protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Uint32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Uint64Kind:
		return protowire.VarintType
	case protoreflect.Fixed32Kind, protoreflect.Sfixed32Kind, protoreflect.FloatKind:
		return protowire.Fixed32Type
	case protoreflect.Fixed64Kind, protoreflect.Sfixed64Kind, protoreflect.DoubleKind:
		return protowire.Fixed64Type
	case protoreflect.GroupKind:
		return protowire.StartGroupType
	}
	return protowire.BytesType
}

func validateUTF8(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.StringKind && fd.ParentFile().Syntax() != protoreflect.Proto2
}

func invalidUTF8(fd protoreflect.FieldDescriptor) error {
	return errors.New(errors.PhaseWire, errors.KindWireCodec).
		Path(string(fd.Name())).
		WireType("string").
		Detail("invalid UTF-8").
		Build()
}

// Marshal encodes message id in protobuf binary form. Fields are written in
// number order, so equal contents produce equal bytes.
func (a *Arena) Marshal(id MessageID) ([]byte, error) {
	return a.AppendMarshal(nil, id)
}

// AppendMarshal appends the encoding of message id to b.
func (a *Arena) AppendMarshal(b []byte, id MessageID) ([]byte, error) {
	if a.message(id) == nil {
		return b, errors.Codec("marshal", errors.InvalidInput(errors.PhaseWire, "invalid message handle"))
	}
	return a.appendMessage(b, id, 0)
}

func (a *Arena) appendMessage(b []byte, id MessageID, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return b, errors.MaxDepth(errors.PhaseWire, nil, MaxDepth)
	}
	m := a.message(id)
	if m == nil {
		return b, nil
	}
	desc, unknown := m.desc, m.unknown

	var err error
	for _, fd := range fieldOrder(desc) {
		v := a.Get(id, fd)
		if v.IsEmpty() {
			continue
		}
		switch {
		case fd.IsMap():
			b, err = a.appendMap(b, fd, v.Map(), depth)
		case fd.IsList():
			b, err = a.appendList(b, fd, v.Array(), depth)
		default:
			if !fd.HasPresence() && v.isZero() {
				continue
			}
			b, err = a.appendField(b, fd, v, depth)
		}
		if err != nil {
			return b, err
		}
	}
	return append(b, unknown...), nil
}

func (a *Arena) appendField(b []byte, fd protoreflect.FieldDescriptor, v Value, depth int) ([]byte, error) {
	num := fd.Number()
	switch fd.Kind() {
	case protoreflect.GroupKind:
		var err error
		b = protowire.AppendTag(b, num, protowire.StartGroupType)
		if b, err = a.appendMessage(b, v.Message(), depth+1); err != nil {
			return b, err
		}
		return protowire.AppendTag(b, num, protowire.EndGroupType), nil
	case protoreflect.MessageKind:
		sub, err := a.appendMessage(nil, v.Message(), depth+1)
		if err != nil {
			return b, err
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		return protowire.AppendBytes(b, sub), nil
	}
	b = protowire.AppendTag(b, num, wireType(fd.Kind()))
	return appendScalar(b, fd, v)
}

func appendScalar(b []byte, fd protoreflect.FieldDescriptor, v Value) ([]byte, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return protowire.AppendVarint(b, protowire.EncodeBool(v.Bool())), nil
	case protoreflect.EnumKind, protoreflect.Int32Kind:
		return protowire.AppendVarint(b, uint64(int64(v.Int32()))), nil
	case protoreflect.Sint32Kind:
		return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v.Int32()))), nil
	case protoreflect.Uint32Kind:
		return protowire.AppendVarint(b, uint64(v.Uint32())), nil
	case protoreflect.Int64Kind, protoreflect.Uint64Kind:
		return protowire.AppendVarint(b, v.Uint64()), nil
	case protoreflect.Sint64Kind:
		return protowire.AppendVarint(b, protowire.EncodeZigZag(v.Int64())), nil
	case protoreflect.Sfixed32Kind, protoreflect.Fixed32Kind, protoreflect.FloatKind:
		return protowire.AppendFixed32(b, uint32(v.num)), nil
	case protoreflect.Sfixed64Kind, protoreflect.Fixed64Kind, protoreflect.DoubleKind:
		return protowire.AppendFixed64(b, v.num), nil
	case protoreflect.StringKind:
		if validateUTF8(fd) && !utf8.Valid(v.str) {
			return b, invalidUTF8(fd)
		}
		return protowire.AppendBytes(b, v.str), nil
	case protoreflect.BytesKind:
		return protowire.AppendBytes(b, v.str), nil
	}
	return b, errors.Codec("marshal", errors.Unsupported(errors.PhaseWire, "field kind "+fd.Kind().String()))
}

func (a *Arena) appendList(b []byte, fd protoreflect.FieldDescriptor, id ArrayID, depth int) ([]byte, error) {
	n := a.ArrayLen(id)
	if n == 0 {
		return b, nil
	}
	if fd.IsPacked() && packable(fd.Kind()) {
		var packed []byte
		for i := 0; i < n; i++ {
			var err error
			if packed, err = appendScalar(packed, fd, a.ArrayAt(id, i)); err != nil {
				return b, err
			}
		}
		b = protowire.AppendTag(b, fd.Number(), protowire.BytesType)
		return protowire.AppendBytes(b, packed), nil
	}
	for i := 0; i < n; i++ {
		var err error
		if b, err = a.appendField(b, fd, a.ArrayAt(id, i), depth); err != nil {
			return b, err
		}
	}
	return b, nil
}

func (a *Arena) appendMap(b []byte, fd protoreflect.FieldDescriptor, id MapID, depth int) ([]byte, error) {
	kfd, vfd := fd.MapKey(), fd.MapValue()
	for i, n := 0, a.MapLen(id); i < n; i++ {
		k, v := a.MapEntry(id, i)
		if k.IsEmpty() {
			k = defaultValue(kfd)
		}
		if v.IsEmpty() && vfd.Message() == nil {
			v = defaultValue(vfd)
		}

		entry, err := a.appendField(nil, kfd, k, depth)
		if err != nil {
			return b, err
		}
		if entry, err = a.appendField(entry, vfd, v, depth); err != nil {
			return b, err
		}
		b = protowire.AppendTag(b, fd.Number(), protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b, nil
}

// Unmarshal decodes data as a message of type md into a and returns its
// handle. Unknown fields and fields sent with an unexpected wire type are
// kept as unknown bytes. String and bytes payloads are copied into a.
func (a *Arena) Unmarshal(data []byte, md protoreflect.MessageDescriptor) (MessageID, error) {
	id := a.NewMessage(md)
	if err := a.unmarshalInto(data, id, 0); err != nil {
		return 0, err
	}
	return id, nil
}

func parseError(fd protoreflect.FieldDescriptor, n int) error {
	e := errors.Codec("unmarshal", protowire.ParseError(n))
	if fd != nil {
		e.Path = []string{string(fd.Name())}
	}
	return e
}

func (a *Arena) unmarshalInto(b []byte, id MessageID, depth int) error {
	if depth > MaxDepth {
		return errors.MaxDepth(errors.PhaseWire, nil, MaxDepth)
	}
	fields := a.message(id).desc.Fields()

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseError(nil, n)
		}
		fd := fields.ByNumber(num)

		var (
			used int
			err  error
		)
		switch {
		case fd == nil:
			used = -1
		case fd.IsList() && typ == protowire.BytesType && packable(fd.Kind()):
			used, err = a.consumePacked(b[n:], id, fd)
		case typ != wireType(fd.Kind()):
			used = -1
		case fd.IsMap():
			used, err = a.consumeMapEntry(b[n:], id, fd, depth)
		default:
			used, err = a.consumeField(b[n:], id, fd, num, typ, depth)
		}
		if err != nil {
			return err
		}

		if used < 0 {
			used = protowire.ConsumeFieldValue(num, typ, b[n:])
			if used < 0 {
				return parseError(fd, used)
			}
			m := a.message(id)
			m.unknown = append(m.unknown, b[:n+used]...)
		}
		b = b[n+used:]
	}
	return nil
}

func (a *Arena) consumeField(b []byte, id MessageID, fd protoreflect.FieldDescriptor, num protowire.Number, typ protowire.Type, depth int) (int, error) {
	var (
		v   Value
		n   int
		err error
	)
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		var sub []byte
		if typ == protowire.StartGroupType {
			sub, n = protowire.ConsumeGroup(num, b)
		} else {
			sub, n = protowire.ConsumeBytes(b)
		}
		if n < 0 {
			return 0, parseError(fd, n)
		}
		target := MessageID(0)
		if !fd.IsList() {
			target = a.Get(id, fd).Message() // repeated singular messages merge
		}
		if target == 0 {
			target = a.NewMessage(fd.Message())
		}
		if err := a.unmarshalInto(sub, target, depth+1); err != nil {
			return 0, err
		}
		v = MessageValue(target)
	default:
		v, n, err = a.consumeScalar(b, fd, typ)
		if err != nil {
			return 0, err
		}
	}

	if fd.IsList() {
		err = a.appendElement(id, fd, v)
	} else {
		err = a.set(id, fd, v)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (a *Arena) appendElement(id MessageID, fd protoreflect.FieldDescriptor, v Value) error {
	arr := a.Get(id, fd).Array()
	if arr == 0 {
		arr = a.NewArray(fd)
		if err := a.set(id, fd, ArrayValue(arr)); err != nil {
			return err
		}
	}
	a.ArrayAppend(arr, v)
	return nil
}

func (a *Arena) consumePacked(b []byte, id MessageID, fd protoreflect.FieldDescriptor) (int, error) {
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, parseError(fd, n)
	}
	typ := wireType(fd.Kind())
	for len(packed) > 0 {
		v, m, err := a.consumeScalar(packed, fd, typ)
		if err != nil {
			return 0, err
		}
		if err := a.appendElement(id, fd, v); err != nil {
			return 0, err
		}
		packed = packed[m:]
	}
	return n, nil
}

func (a *Arena) consumeScalar(b []byte, fd protoreflect.FieldDescriptor, typ protowire.Type) (Value, int, error) {
	switch typ {
	case protowire.VarintType:
		x, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return Value{}, 0, parseError(fd, n)
		}
		switch fd.Kind() {
		case protoreflect.BoolKind:
			return BoolValue(protowire.DecodeBool(x)), n, nil
		case protoreflect.EnumKind, protoreflect.Int32Kind:
			return Int32Value(int32(x)), n, nil
		case protoreflect.Sint32Kind:
			return Int32Value(int32(protowire.DecodeZigZag(x & 0xffffffff))), n, nil
		case protoreflect.Uint32Kind:
			return Uint32Value(uint32(x)), n, nil
		case protoreflect.Int64Kind:
			return Int64Value(int64(x)), n, nil
		case protoreflect.Sint64Kind:
			return Int64Value(protowire.DecodeZigZag(x)), n, nil
		case protoreflect.Uint64Kind:
			return Uint64Value(x), n, nil
		}
	case protowire.Fixed32Type:
		x, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return Value{}, 0, parseError(fd, n)
		}
		return Value{kind: ScalarKind(fd.Kind()), num: uint64(x)}.normalize(), n, nil
	case protowire.Fixed64Type:
		x, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return Value{}, 0, parseError(fd, n)
		}
		return Value{kind: ScalarKind(fd.Kind()), num: x}, n, nil
	case protowire.BytesType:
		s, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return Value{}, 0, parseError(fd, n)
		}
		if validateUTF8(fd) && !utf8.Valid(s) {
			return Value{}, 0, invalidUTF8(fd)
		}
		return BytesValue(a.copyBytes(s)), n, nil
	}
	return Value{}, 0, errors.Codec("unmarshal", errors.Unsupported(errors.PhaseWire, "wire type for "+fd.Kind().String()))
}

// normalize sign-extends a 32-bit signed payload so Int32 values share one
// representation regardless of their source.
func (v Value) normalize() Value {
	if v.kind == KindInt32 {
		v.num = uint64(int64(int32(uint32(v.num))))
	}
	return v
}

func (a *Arena) consumeMapEntry(b []byte, id MessageID, fd protoreflect.FieldDescriptor, depth int) (int, error) {
	entry, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, parseError(fd, n)
	}
	kfd, vfd := fd.MapKey(), fd.MapValue()
	key, val := defaultValue(kfd), Value{}

	for len(entry) > 0 {
		num, typ, m := protowire.ConsumeTag(entry)
		if m < 0 {
			return 0, parseError(fd, m)
		}
		entry = entry[m:]

		var target protoreflect.FieldDescriptor
		switch num {
		case 1:
			target = kfd
		case 2:
			target = vfd
		}
		if target == nil || typ != wireType(target.Kind()) {
			m = protowire.ConsumeFieldValue(num, typ, entry)
			if m < 0 {
				return 0, parseError(fd, m)
			}
			entry = entry[m:]
			continue
		}

		if target.Message() != nil {
			sub, m := protowire.ConsumeBytes(entry)
			if m < 0 {
				return 0, parseError(fd, m)
			}
			msg := val.Message()
			if msg == 0 {
				msg = a.NewMessage(target.Message())
			}
			if err := a.unmarshalInto(sub, msg, depth+1); err != nil {
				return 0, err
			}
			val = MessageValue(msg)
			entry = entry[m:]
			continue
		}

		v, m, err := a.consumeScalar(entry, target, typ)
		if err != nil {
			return 0, err
		}
		if num == 1 {
			key = v
		} else {
			val = v
		}
		entry = entry[m:]
	}

	if val.IsEmpty() {
		if vfd.Message() != nil {
			val = MessageValue(a.NewMessage(vfd.Message()))
		} else {
			val = defaultValue(vfd)
		}
	}

	table := a.Get(id, fd).Map()
	if table == 0 {
		table = a.NewMap(fd)
		if err := a.set(id, fd, MapValue(table)); err != nil {
			return 0, err
		}
	}
	a.mapInsert(table, key, val)
	return n, nil
}
