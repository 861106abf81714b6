package wire

import (
	"sync"

	"github.com/wippyai/protobind/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxData  = 1 << 20 // bytes
	poolMaxSlots = 1 << 16
	poolInitData = 256
)

type message struct {
	desc    protoreflect.MessageDescriptor
	unknown []byte
	off     uint32 // first slot in Arena.slots
	n       uint32
}

type array struct {
	fd    protoreflect.FieldDescriptor
	elems []Value
}

type table struct {
	fd    protoreflect.FieldDescriptor
	index map[mapKey]int
	keys  []Value
	vals  []Value
}

// Arena owns every message, array, map and byte payload created during one
// encode or decode call. Handles and byte views returned by an arena are
// invalidated together by Reset or Release.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	data   []byte
	slots  []Value
	msgs   []message
	arrays []array
	maps   []table
}

var arenaPool = sync.Pool{
	New: func() any {
		return &Arena{data: make([]byte, 0, poolInitData)}
	},
}

// NewArena returns an empty, unpooled arena.
func NewArena() *Arena {
	return &Arena{}
}

// AcquireArena returns an empty arena from the shared pool.
func AcquireArena() *Arena {
	return arenaPool.Get().(*Arena)
}

// Release resets a and returns it to the shared pool.
// Oversized arenas are dropped.
func (a *Arena) Release() {
	if a == nil {
		return
	}
	if cap(a.data) > poolMaxData || cap(a.slots) > poolMaxSlots {
		return // reject oversized
	}
	a.Reset()
	arenaPool.Put(a)
}

// Reset drops all contents while keeping allocated capacity.
func (a *Arena) Reset() {
	a.data = a.data[:0]
	clear(a.slots)
	a.slots = a.slots[:0]
	clear(a.msgs)
	a.msgs = a.msgs[:0]
	clear(a.arrays)
	a.arrays = a.arrays[:0]
	clear(a.maps)
	a.maps = a.maps[:0]
}

// Messages returns the number of messages allocated in a.
func (a *Arena) Messages() int {
	return len(a.msgs)
}

// copyBytes copies b into the byte region and returns the view.
func (a *Arena) copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	start := len(a.data)
	a.data = append(a.data, b...)
	return a.data[start:len(a.data):len(a.data)]
}

// NewMessage allocates an empty message of type md.
func (a *Arena) NewMessage(md protoreflect.MessageDescriptor) MessageID {
	n := md.Fields().Len()
	off := len(a.slots)
	a.slots = append(a.slots, make([]Value, n)...)
	a.msgs = append(a.msgs, message{desc: md, off: uint32(off), n: uint32(n)})
	return MessageID(len(a.msgs))
}

func (a *Arena) message(id MessageID) *message {
	if id == 0 || int(id) > len(a.msgs) {
		return nil
	}
	return &a.msgs[id-1]
}

// Descriptor returns the type of message id, or nil for an invalid handle.
func (a *Arena) Descriptor(id MessageID) protoreflect.MessageDescriptor {
	if m := a.message(id); m != nil {
		return m.desc
	}
	return nil
}

// Unknown returns the raw bytes of fields the schema did not recognize.
func (a *Arena) Unknown(id MessageID) []byte {
	if m := a.message(id); m != nil {
		return m.unknown
	}
	return nil
}

func (a *Arena) slot(id MessageID, fd protoreflect.FieldDescriptor) (*Value, error) {
	m := a.message(id)
	if m == nil {
		return nil, errors.New(errors.PhaseWire, errors.KindInvalidInput).
			Path(string(fd.Name())).
			Detail("invalid message handle %d", id).
			Build()
	}
	idx := fd.Index()
	if fd.ContainingMessage().FullName() != m.desc.FullName() || uint32(idx) >= m.n {
		return nil, errors.New(errors.PhaseWire, errors.KindFieldKindMismatch).
			Path(string(fd.Name())).
			WireType(string(m.desc.FullName())).
			Detail("field belongs to %s", fd.ContainingMessage().FullName()).
			Build()
	}
	return &a.slots[m.off+uint32(idx)], nil
}

// Get returns the stored value of field fd, KindEmpty when unset.
func (a *Arena) Get(id MessageID, fd protoreflect.FieldDescriptor) Value {
	s, err := a.slot(id, fd)
	if err != nil {
		return Value{}
	}
	return *s
}

func (a *Arena) set(id MessageID, fd protoreflect.FieldDescriptor, v Value) error {
	s, err := a.slot(id, fd)
	if err != nil {
		return err
	}
	*s = v
	if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() && !v.IsEmpty() {
		m := a.message(id)
		fields := od.Fields()
		for i := 0; i < fields.Len(); i++ {
			if f := fields.Get(i); f.Number() != fd.Number() {
				a.slots[m.off+uint32(f.Index())] = Value{}
			}
		}
	}
	return nil
}

// WhichOneof returns the member of od currently set in message id.
func (a *Arena) WhichOneof(id MessageID, od protoreflect.OneofDescriptor) protoreflect.FieldDescriptor {
	fields := od.Fields()
	for i := 0; i < fields.Len(); i++ {
		f := fields.Get(i)
		if !a.Get(id, f).IsEmpty() {
			return f
		}
	}
	return nil
}

// NewArray allocates an empty array whose elements have the element kind
// of the repeated field fd.
func (a *Arena) NewArray(fd protoreflect.FieldDescriptor) ArrayID {
	a.arrays = append(a.arrays, array{fd: fd})
	return ArrayID(len(a.arrays))
}

func (a *Arena) array(id ArrayID) *array {
	if id == 0 || int(id) > len(a.arrays) {
		return nil
	}
	return &a.arrays[id-1]
}

// ArrayLen returns the element count of array id; 0 for the absent handle.
func (a *Arena) ArrayLen(id ArrayID) int {
	if arr := a.array(id); arr != nil {
		return len(arr.elems)
	}
	return 0
}

// ArrayAt returns element i, KindEmpty when out of range or never set.
func (a *Arena) ArrayAt(id ArrayID, i int) Value {
	arr := a.array(id)
	if arr == nil || i < 0 || i >= len(arr.elems) {
		return Value{}
	}
	return arr.elems[i]
}

// ArrayResize grows or shrinks array id. New elements are left unset.
func (a *Arena) ArrayResize(id ArrayID, n int) {
	arr := a.array(id)
	if arr == nil {
		return
	}
	if n <= len(arr.elems) {
		clear(arr.elems[n:])
		arr.elems = arr.elems[:n]
		return
	}
	arr.elems = append(arr.elems, make([]Value, n-len(arr.elems))...)
}

// ArrayAppend appends v to array id.
func (a *Arena) ArrayAppend(id ArrayID, v Value) {
	if arr := a.array(id); arr != nil {
		arr.elems = append(arr.elems, v)
	}
}

// NewMap allocates an empty map for map field fd.
func (a *Arena) NewMap(fd protoreflect.FieldDescriptor) MapID {
	a.maps = append(a.maps, table{fd: fd, index: make(map[mapKey]int)})
	return MapID(len(a.maps))
}

func (a *Arena) table(id MapID) *table {
	if id == 0 || int(id) > len(a.maps) {
		return nil
	}
	return &a.maps[id-1]
}

// MapLen returns the entry count of map id; 0 for the absent handle.
func (a *Arena) MapLen(id MapID) int {
	if t := a.table(id); t != nil {
		return len(t.keys)
	}
	return 0
}

// MapEntry returns entry i in insertion order.
func (a *Arena) MapEntry(id MapID, i int) (key, val Value) {
	t := a.table(id)
	if t == nil || i < 0 || i >= len(t.keys) {
		return Value{}, Value{}
	}
	return t.keys[i], t.vals[i]
}

// MapLookup finds the value stored under key.
func (a *Arena) MapLookup(id MapID, key Value) (Value, bool) {
	t := a.table(id)
	if t == nil {
		return Value{}, false
	}
	i, ok := t.index[key.key()]
	if !ok {
		return Value{}, false
	}
	return t.vals[i], true
}

// mapInsert stores val under key; an existing key keeps its position and
// takes the new value.
func (a *Arena) mapInsert(id MapID, key, val Value) {
	t := a.table(id)
	if t == nil {
		return
	}
	k := key.key()
	if i, ok := t.index[k]; ok {
		t.vals[i] = val
		return
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, key)
	t.vals = append(t.vals, val)
}

// CloneMessage deep-copies message id and everything it references into
// dst and returns the new handle. dst may be a itself.
func (a *Arena) CloneMessage(dst *Arena, id MessageID) MessageID {
	src := a.message(id)
	if src == nil {
		return 0
	}
	desc, off, n, unknown := src.desc, src.off, src.n, src.unknown

	out := dst.NewMessage(desc)
	base := dst.message(out).off
	if len(unknown) > 0 {
		dst.message(out).unknown = append([]byte(nil), unknown...)
	}
	fields := desc.Fields()
	for i := uint32(0); i < n; i++ {
		v := a.slots[off+i]
		if v.IsEmpty() {
			continue
		}
		// cloning may grow dst.slots, so evaluate before indexing
		cloned := a.cloneValue(dst, fields.Get(int(i)), v)
		dst.slots[base+i] = cloned
	}
	return out
}

func (a *Arena) cloneValue(dst *Arena, fd protoreflect.FieldDescriptor, v Value) Value {
	switch v.kind {
	case KindString:
		return BytesValue(dst.copyBytes(v.str))
	case KindMessage:
		return MessageValue(a.CloneMessage(dst, v.Message()))
	case KindArray:
		src := a.array(v.Array())
		if src == nil {
			return Value{}
		}
		elems := src.elems
		out := dst.NewArray(fd)
		copied := make([]Value, len(elems))
		for i, e := range elems {
			copied[i] = a.cloneValue(dst, fd, e)
		}
		dst.array(out).elems = copied
		return ArrayValue(out)
	case KindMap:
		src := a.table(v.Map())
		if src == nil {
			return Value{}
		}
		keys, vals := src.keys, src.vals
		out := dst.NewMap(fd)
		for i := range keys {
			k := a.cloneValue(dst, fd.MapKey(), keys[i])
			val := a.cloneValue(dst, fd.MapValue(), vals[i])
			dst.mapInsert(out, k, val)
		}
		return MapValue(out)
	}
	return v
}
