package transcoder

import (
	"reflect"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/wire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Variant holds a message whose Go type is decided later. Decoding into a
// Variant field captures the sub-message; DecodeVariant or ResolveVariant
// then decode it on demand.
//
// The zero Variant is empty. Copies share one read-only box, which owns
// its arena exclusively.
type Variant struct {
	box *variantBox
}

type variantBox struct {
	arena *wire.Arena
	desc  protoreflect.MessageDescriptor
	msg   wire.MessageID
}

var variantType = reflect.TypeFor[Variant]()

// capture deep-copies message id out of a call-scoped arena.
func capture(a *wire.Arena, id wire.MessageID) Variant {
	owned := wire.NewArena()
	cid := a.CloneMessage(owned, id)
	return Variant{box: &variantBox{arena: owned, msg: cid, desc: owned.Descriptor(cid)}}
}

// IsValid reports whether the variant holds a message.
func (v Variant) IsValid() bool {
	return v.box != nil
}

// MessageName returns the full name of the held message, "" when empty.
func (v Variant) MessageName() protoreflect.FullName {
	if v.box == nil {
		return ""
	}
	return v.box.desc.FullName()
}

// BoxedMessage implements native.Boxed.
func (v Variant) BoxedMessage() protoreflect.FullName {
	return v.MessageName()
}

// Descriptor returns the held message's descriptor, nil when empty.
func (v Variant) Descriptor() protoreflect.MessageDescriptor {
	if v.box == nil {
		return nil
	}
	return v.box.desc
}

// Clear empties the variant.
func (v *Variant) Clear() {
	v.box = nil
}

// Has reports whether field number n is set in the held message.
func (v Variant) Has(n protoreflect.FieldNumber) bool {
	if v.box == nil {
		return false
	}
	fd := v.box.desc.Fields().ByNumber(n)
	if fd == nil {
		return false
	}
	return wire.NewReader(v.box.arena, v.box.msg, fd).Has()
}

// Field boxes the message-typed field number n of the held message. An
// unset field yields an empty Variant.
func (v Variant) Field(n protoreflect.FieldNumber) (Variant, error) {
	if v.box == nil {
		return Variant{}, errors.InvalidInput(errors.PhaseDecode, "empty variant")
	}
	fd := v.box.desc.Fields().ByNumber(n)
	if fd == nil {
		return Variant{}, errors.New(errors.PhaseDecode, errors.KindFieldNameUnmatched).
			Detail("%s has no field %d", v.box.desc.FullName(), n).
			Build()
	}
	r := wire.NewReader(v.box.arena, v.box.msg, fd)
	if !r.IsMessage() {
		return Variant{}, errors.KindMismatch(errors.PhaseDecode, []string{string(fd.Name())}, "variant", fd.Kind().String())
	}
	id, err := r.SubMessage()
	if err != nil || id == 0 {
		return Variant{}, err
	}
	return Variant{box: &variantBox{arena: v.box.arena, msg: id, desc: fd.Message()}}, nil
}

// Marshal encodes the held message.
func (v Variant) Marshal() ([]byte, error) {
	if v.box == nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, "empty variant")
	}
	return v.box.arena.Marshal(v.box.msg)
}
