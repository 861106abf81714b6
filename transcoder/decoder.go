package transcoder

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Decoder converts protobuf messages to Go structs. It is safe for
// concurrent use once schema registration is done.
//
// A decode that fails leaves the destination untouched: the payload is
// parsed in full first, and fields are then decoded into a copy that
// replaces the destination only on success.
type Decoder struct {
	compiler *Compiler
	cfg      Config
}

func NewDecoder(cfg Config) *Decoder {
	return NewDecoderWithCompiler(cfg, NewCompiler())
}

func NewDecoderWithCompiler(cfg Config, c *Compiler) *Decoder {
	return &Decoder{compiler: c, cfg: cfg.normalize()}
}

// Decode unmarshals data into v, which must be a non-nil struct pointer.
func (d *Decoder) Decode(data []byte, v any) error {
	t, ptr, err := structOf(errors.PhaseDecode, v, true)
	if err != nil {
		return err
	}
	return d.DecodeStruct(data, t, ptr)
}

// DecodeStruct unmarshals data into the struct of type t stored at ptr.
// Every schema field present in t is overwritten; fields missing from the
// payload receive their declared defaults.
func (d *Decoder) DecodeStruct(data []byte, t reflect.Type, ptr unsafe.Pointer) error {
	md, nt, err := resolve(&d.cfg, errors.PhaseDecode, t, ptr)
	if err != nil {
		return err
	}

	arena := wire.AcquireArena()
	defer arena.Release()

	id, err := arena.Unmarshal(data, md)
	if err != nil {
		return err
	}
	return d.decodeInto(arena, id, md, nt, ptr)
}

// DecodeVariant decodes the boxed message into out, a struct pointer,
// matching fields by name. The struct type need not be bound to the
// message.
func (d *Decoder) DecodeVariant(v Variant, out any) error {
	if !v.IsValid() {
		return errors.InvalidInput(errors.PhaseDecode, "empty variant")
	}
	t, ptr, err := structOf(errors.PhaseDecode, out, true)
	if err != nil {
		return err
	}
	nt := native.TypeOf(t)
	if nt.Kind != native.KindStruct {
		return errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("expected a struct").
			Build()
	}
	return d.decodeInto(v.box.arena, v.box.msg, v.box.desc, nt, ptr)
}

// ResolveVariant allocates the Go type bound to the boxed message and
// decodes into it. It returns a pointer to the new value.
func (d *Decoder) ResolveVariant(v Variant) (any, error) {
	if !v.IsValid() {
		return nil, errors.InvalidInput(errors.PhaseResolve, "empty variant")
	}
	if d.cfg.Pool == nil {
		return nil, errors.MessageNotFound(errors.PhaseResolve, string(v.MessageName()))
	}
	t, ok := d.cfg.Pool.NativeType(v.MessageName())
	if !ok {
		return nil, errors.New(errors.PhaseResolve, errors.KindSchemaNotFound).
			Detail("no Go type bound to %s", v.MessageName()).
			Build()
	}
	out := reflect.New(t)
	if err := d.decodeInto(v.box.arena, v.box.msg, v.box.desc, native.TypeOf(t), out.UnsafePointer()); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (d *Decoder) decodeInto(a *wire.Arena, id wire.MessageID, md protoreflect.MessageDescriptor, nt *native.Type, ptr unsafe.Pointer) error {
	s := newState(&d.cfg, d.compiler, a)
	defer putState(s)

	scratch := reflect.New(nt.Go)
	scratch.Elem().Set(nt.At(ptr))
	if err := s.decodeMessage(id, md, nt, scratch.UnsafePointer()); err != nil {
		return err
	}
	nt.At(ptr).Set(scratch.Elem())
	return nil
}

// decodeMessage fills the struct at base from message id; a zero id reads
// as an empty message.
func (s *state) decodeMessage(id wire.MessageID, md protoreflect.MessageDescriptor, t *native.Type, base unsafe.Pointer) error {
	if err := s.enter(errors.PhaseDecode); err != nil {
		return err
	}
	defer s.leave()

	plan := s.compiler.Compile(md, t)
	for i := range plan.Fields {
		b := &plan.Fields[i]
		s.push(string(b.Desc.Name()))
		var err error
		if b.Field == nil {
			err = errors.NameUnmatched(errors.PhaseDecode, nil, t.String())
		} else {
			err = s.decodeField(id, b, base)
		}
		err = s.check(err)
		s.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) decodeField(id wire.MessageID, b *Binding, base unsafe.Pointer) error {
	f := b.Field
	r := wire.NewReader(s.arena, id, b.Desc)
	if f.Dim > 1 {
		return s.readFixed(r, f, base)
	}
	return s.readValue(r, f.Type, f.Addr(base, 0))
}

// readFixed decodes into a fixed-size array field. Extra wire elements are
// dropped and missing ones leave zero values.
func (s *state) readFixed(r wire.Reader, f *native.Field, base unsafe.Pointer) error {
	tmp := reflect.New(reflect.ArrayOf(f.Dim, f.Type.Go))
	elem := func(i int) unsafe.Pointer {
		return unsafe.Add(tmp.UnsafePointer(), uintptr(i)*f.Stride)
	}

	v, node := r.Dispatch()
	switch {
	case !node && v.Kind() == wire.KindString && r.IsBytes() && rawBytes(f.Type):
		copy(unsafe.Slice((*byte)(elem(0)), f.Dim), v.Bytes())
	case r.IsArray():
		n := min(r.ArraySize(), f.Dim)
		for i := 0; i < n; i++ {
			el, err := r.Element(i)
			if err != nil {
				return err
			}
			if err := s.readValue(el, f.Type, elem(i)); err != nil {
				return err
			}
		}
	case r.IsMap():
		return mismatch(errors.PhaseDecode, r.Descriptor(), f.Type)
	default:
		if err := s.readValue(r, f.Type, elem(0)); err != nil {
			return err
		}
	}

	reflect.NewAt(tmp.Type().Elem(), f.Addr(base, 0)).Elem().Set(tmp.Elem())
	return nil
}
