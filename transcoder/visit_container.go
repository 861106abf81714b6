package transcoder

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
)

// rawBytes reports Go element kinds copied as a whole to a bytes field.
func rawBytes(elem *native.Type) bool {
	return elem.Kind == native.KindByte || elem.Kind == native.KindInt8
}

func writeSlice(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	n := t.Len(ptr)
	switch {
	case w.IsBytes() && !w.IsArray() && rawBytes(t.Elem):
		return w.SetBytes(t.Bytes(ptr))
	case w.IsArray():
		for i := 0; i < n; i++ {
			ew, err := w.Element(i)
			if err != nil {
				return err
			}
			if err := s.writeValue(ew, t.Elem, t.Index(ptr, i)); err != nil {
				return discard(w, err)
			}
		}
		return nil
	case w.IsMap():
		return mismatch(errors.PhaseEncode, w.Descriptor(), t)
	}
	// singular field: the first element stands for the whole slice
	if n == 0 {
		return nil
	}
	return s.writeValue(w, t.Elem, t.Index(ptr, 0))
}

// readSlice builds the slice aside and stores it only once every element
// decoded.
func readSlice(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if !r.IsArray() {
		if r.IsMap() {
			return mismatch(errors.PhaseDecode, r.Descriptor(), t)
		}
		return readSingle(s, r, t, ptr)
	}

	n := r.ArraySize()
	tmp := reflect.New(t.Go)
	tp := tmp.UnsafePointer()
	t.Resize(tp, n)
	for i := 0; i < n; i++ {
		el, err := r.Element(i)
		if err != nil {
			return err
		}
		if err := s.readValue(el, t.Elem, t.Index(tp, i)); err != nil {
			return err
		}
	}
	t.At(ptr).Set(tmp.Elem())
	return nil
}

func readSliceLeaf(s *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if v.Kind() == wire.KindString && r.IsBytes() && rawBytes(t.Elem) {
		src := v.Bytes()
		t.Resize(ptr, len(src))
		if len(src) > 0 {
			copy(t.Bytes(ptr), src)
		}
		return nil
	}
	return readSingle(s, r, t, ptr)
}

// readSingle treats a singular wire field as a one-element slice; an unset
// field yields an empty one.
func readSingle(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if !r.Has() {
		t.Resize(ptr, 0)
		return nil
	}
	tmp := reflect.New(t.Go)
	tp := tmp.UnsafePointer()
	t.Resize(tp, 1)
	if err := s.readValue(r, t.Elem, t.Index(tp, 0)); err != nil {
		return err
	}
	t.At(ptr).Set(tmp.Elem())
	return nil
}

func writeSet(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	if w.IsMap() {
		return mismatch(errors.PhaseEncode, w.Descriptor(), t)
	}
	keys := t.Keys(ptr)
	if !w.IsArray() {
		if len(keys) == 0 {
			return nil
		}
		return s.writeValue(w, t.Key, keys[0].Addr().UnsafePointer())
	}
	for i, k := range keys {
		ew, err := w.Element(i)
		if err != nil {
			return err
		}
		if err := s.writeValue(ew, t.Key, k.Addr().UnsafePointer()); err != nil {
			return discard(w, err)
		}
	}
	return nil
}

func readSet(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if !r.IsArray() {
		if r.IsMap() {
			return mismatch(errors.PhaseDecode, r.Descriptor(), t)
		}
		return readSetSingle(s, r, t, ptr)
	}
	n := r.ArraySize()
	b := t.NewBuilder(n)
	for i := 0; i < n; i++ {
		el, err := r.Element(i)
		if err != nil {
			return err
		}
		key := b.NewKey()
		if err := s.readValue(el, t.Key, key.UnsafePointer()); err != nil {
			return err
		}
		b.Insert(key, reflect.Value{})
	}
	b.Store(ptr)
	return nil
}

func readSetLeaf(s *state, r wire.Reader, _ wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	return readSetSingle(s, r, t, ptr)
}

func readSetSingle(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	b := t.NewBuilder(1)
	if r.Has() {
		key := b.NewKey()
		if err := s.readValue(r, t.Key, key.UnsafePointer()); err != nil {
			return err
		}
		b.Insert(key, reflect.Value{})
	}
	b.Store(ptr)
	return nil
}

func writeMap(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	if !w.IsMap() {
		return mismatch(errors.PhaseEncode, w.Descriptor(), t)
	}
	vfd := w.Descriptor().MapValue()
	for _, k := range t.Keys(ptr) {
		kw := w.MapKey()
		if err := s.writeValue(kw, t.Key, k.Addr().UnsafePointer()); err != nil {
			return discard(w, err)
		}
		v := t.MapIndex(ptr, k)
		vw := w.MapValue()
		if err := s.writeValue(vw, t.Value, v.Addr().UnsafePointer()); err != nil {
			return discard(w, err)
		}
		if vw.Value().IsEmpty() && vfd.Message() != nil {
			if _, err := vw.NewMessage(); err != nil {
				return err
			}
		}
		if err := w.InsertMapEntry(kw.Value(), vw.Value()); err != nil {
			return discard(w, err)
		}
	}
	return nil
}

func readMap(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	cur, err := r.Entries()
	if err != nil {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	b := t.NewBuilder(cur.Len())
	for kr, vr, ok := cur.Next(); ok; kr, vr, ok = cur.Next() {
		key := b.NewKey()
		if err := s.readValue(kr, t.Key, key.UnsafePointer()); err != nil {
			return err
		}
		val := b.NewValue()
		if err := s.readValue(vr, t.Value, val.UnsafePointer()); err != nil {
			return err
		}
		b.Insert(key, val)
	}
	b.Store(ptr)
	return nil
}
