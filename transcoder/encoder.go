package transcoder

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Encoder converts Go structs to protobuf messages. It is safe for
// concurrent use once schema registration is done.
type Encoder struct {
	compiler *Compiler
	cfg      Config
}

func NewEncoder(cfg Config) *Encoder {
	return NewEncoderWithCompiler(cfg, NewCompiler())
}

func NewEncoderWithCompiler(cfg Config, c *Compiler) *Encoder {
	return &Encoder{compiler: c, cfg: cfg.normalize()}
}

// Encode marshals v, a struct or a pointer to one.
func (e *Encoder) Encode(v any) ([]byte, error) {
	t, ptr, err := structOf(errors.PhaseEncode, v, false)
	if err != nil {
		return nil, err
	}
	return e.EncodeStruct(t, ptr)
}

// EncodeStruct marshals the struct of type t stored at ptr.
func (e *Encoder) EncodeStruct(t reflect.Type, ptr unsafe.Pointer) ([]byte, error) {
	md, nt, err := e.resolve(t, ptr)
	if err != nil {
		return nil, err
	}

	arena := wire.AcquireArena()
	defer arena.Release()

	id := arena.NewMessage(md)
	s := newState(&e.cfg, e.compiler, arena)
	defer putState(s)

	if err := s.encodeMessage(id, nt, ptr); err != nil {
		return nil, err
	}
	return arena.Marshal(id)
}

// Box encodes v into a Variant that owns its message.
func (e *Encoder) Box(v any) (Variant, error) {
	t, ptr, err := structOf(errors.PhaseEncode, v, false)
	if err != nil {
		return Variant{}, err
	}
	md, nt, err := e.resolve(t, ptr)
	if err != nil {
		return Variant{}, err
	}

	arena := wire.NewArena()
	id := arena.NewMessage(md)
	s := newState(&e.cfg, e.compiler, arena)
	defer putState(s)

	if err := s.encodeMessage(id, nt, ptr); err != nil {
		return Variant{}, err
	}
	return Variant{box: &variantBox{arena: arena, msg: id, desc: md}}, nil
}

func (e *Encoder) resolve(t reflect.Type, ptr unsafe.Pointer) (protoreflect.MessageDescriptor, *native.Type, error) {
	return resolve(&e.cfg, errors.PhaseEncode, t, ptr)
}

func resolve(cfg *Config, phase errors.Phase, t reflect.Type, ptr unsafe.Pointer) (protoreflect.MessageDescriptor, *native.Type, error) {
	if t == nil || ptr == nil {
		return nil, nil, errors.NilPointer(phase, nil, "struct")
	}
	nt := native.TypeOf(t)
	if nt.Kind != native.KindStruct {
		return nil, nil, errors.New(phase, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("expected a struct").
			Build()
	}
	if cfg.Pool == nil {
		return nil, nil, errors.SchemaNotFoundFor(phase, t.String())
	}
	md, ok := cfg.Pool.FindMessageByNativeType(t)
	if !ok {
		cfg.Logger.Warn("no message registered for type", zap.String("type", t.String()))
		return nil, nil, errors.SchemaNotFoundFor(phase, t.String())
	}
	return md, nt, nil
}

// structOf unpacks v into a struct type and its address. A struct passed by
// value is copied when the caller only reads it.
func structOf(phase errors.Phase, v any, mutable bool) (reflect.Type, unsafe.Pointer, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return nil, nil, errors.NilPointer(phase, nil, "<nil>")
	case rv.Kind() == reflect.Pointer:
		if rv.IsNil() {
			return nil, nil, errors.NilPointer(phase, nil, rv.Type().String())
		}
		return rv.Type().Elem(), rv.UnsafePointer(), nil
	case mutable:
		return nil, nil, errors.New(phase, errors.KindInvalidInput).
			GoType(rv.Type().String()).
			Detail("destination must be a pointer").
			Build()
	}
	cp := reflect.New(rv.Type())
	cp.Elem().Set(rv)
	return rv.Type(), cp.UnsafePointer(), nil
}

// encodeMessage fills message id from the struct at base.
func (s *state) encodeMessage(id wire.MessageID, t *native.Type, base unsafe.Pointer) error {
	if err := s.enter(errors.PhaseEncode); err != nil {
		return err
	}
	defer s.leave()

	plan := s.compiler.Compile(s.arena.Descriptor(id), t)
	for i := range plan.Fields {
		b := &plan.Fields[i]
		s.push(string(b.Desc.Name()))
		err := s.encodeField(id, b, base)
		if err == nil && b.Field == nil {
			err = errors.NameUnmatched(errors.PhaseEncode, nil, t.String())
		}
		err = s.check(err)
		s.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) encodeField(id wire.MessageID, b *Binding, base unsafe.Pointer) error {
	f := b.Field
	if f == nil {
		return nil
	}
	w := wire.NewWriter(s.arena, id, b.Desc)
	if f.Dim > 1 {
		return s.writeFixed(w, f, base)
	}
	ptr := f.Addr(base, 0)
	if b.Oneof && f.Type.IsZero(ptr) {
		return nil
	}
	return s.writeValue(w, f.Type, ptr)
}

// writeFixed encodes a fixed-size array field: raw for bytes fields,
// element-wise for repeated fields, and element 0 for singular ones.
func (s *state) writeFixed(w *wire.Writer, f *native.Field, base unsafe.Pointer) error {
	switch {
	case w.IsBytes() && !w.IsArray() && rawBytes(f.Type):
		return w.SetBytes(unsafe.Slice((*byte)(f.Addr(base, 0)), f.Dim))
	case w.IsArray():
		for i := 0; i < f.Dim; i++ {
			ew, err := w.Element(i)
			if err != nil {
				return err
			}
			if err := s.writeValue(ew, f.Type, f.Addr(base, i)); err != nil {
				return discard(w, err)
			}
		}
		return nil
	}
	return s.writeValue(w, f.Type, f.Addr(base, 0))
}
