package transcoder

import (
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
)

func writeStruct(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	id, err := w.NewMessage()
	if err != nil {
		return err
	}
	return s.encodeMessage(id, t, ptr)
}

// readStruct decodes a message field; an absent message yields a struct of
// field defaults.
func readStruct(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	id, err := r.SubMessage()
	if err != nil {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	return s.decodeMessage(id, r.MessageDescriptor(), t, ptr)
}

func writePointer(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	target := t.Deref(ptr)
	if target == nil {
		return nil
	}
	return s.writeValue(w, t.Elem, target)
}

// readPointer allocates a fresh target for every present value. An absent
// field with explicit presence leaves the pointer nil.
func readPointer(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if !r.Has() && (r.Descriptor().HasPresence() || r.IsArray() || r.IsMap()) {
		t.SetPointer(ptr, nil)
		return nil
	}
	target := t.Alloc()
	if err := s.readValue(r, t.Elem, target); err != nil {
		return err
	}
	t.SetPointer(ptr, target)
	return nil
}

func readPointerLeaf(s *state, r wire.Reader, _ wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	return readPointer(s, r, t, ptr)
}

// writeVariant copies the boxed message into the call's arena. The box must
// hold the field's message type.
func writeVariant(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	if t.Go != variantType {
		return mismatch(errors.PhaseEncode, w.Descriptor(), t)
	}
	v := (*Variant)(ptr)
	if !v.IsValid() {
		return nil
	}
	if !w.IsMessage() || w.MessageDescriptor().FullName() != v.box.desc.FullName() {
		return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
			Path(string(w.Descriptor().Name())).
			GoType("variant " + string(v.box.desc.FullName())).
			WireType(w.Descriptor().Kind().String()).
			Build()
	}
	id := v.box.arena.CloneMessage(w.Arena(), v.box.msg)
	return w.SetMessage(id)
}

// readVariant captures the sub-message in an arena owned by the box, for
// decoding later once its concrete type is known.
func readVariant(_ *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if t.Go != variantType || !r.IsMessage() {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	id, err := r.SubMessage()
	if err != nil {
		return err
	}
	v := (*Variant)(ptr)
	if id == 0 {
		v.Clear()
		return nil
	}
	*v = capture(r.Arena(), id)
	return nil
}
