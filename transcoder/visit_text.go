package transcoder

import (
	"bytes"
	"encoding"
	"strconv"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
)

func writeString(_ *state, w *wire.Writer, _ *native.Type, ptr unsafe.Pointer) error {
	return w.SetString(*(*string)(ptr))
}

// readString also accepts numeric and bool leaves in their formatted form.
func readString(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	var s string
	switch v.Kind() {
	case wire.KindString:
		s = string(v.Bytes())
	case wire.KindBool:
		s = strconv.FormatBool(v.Bool())
	case wire.KindFloat:
		s = strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case wire.KindDouble:
		s = strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case wire.KindUint32, wire.KindUint64:
		s = strconv.FormatUint(v.Uint64(), 10)
	case wire.KindInt32, wire.KindInt64:
		i, _ := v.Int()
		s = strconv.FormatInt(i, 10)
	default:
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	*(*string)(ptr) = s
	return nil
}

func writeName(_ *state, w *wire.Writer, _ *native.Type, ptr unsafe.Pointer) error {
	return w.SetString(native.NameString(*(*native.Name)(ptr)))
}

func readName(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if v.Kind() != wire.KindString {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	if len(v.Bytes()) == 0 {
		*(*native.Name)(ptr) = native.Name{}
		return nil
	}
	*(*native.Name)(ptr) = native.MakeName(string(v.Bytes()))
	return nil
}

func writeText(_ *state, w *wire.Writer, _ *native.Type, ptr unsafe.Pointer) error {
	return w.SetString((*native.Text)(ptr).Value)
}

// readText replaces the value and keeps the language tag.
func readText(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if v.Kind() != wire.KindString {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	(*native.Text)(ptr).Value = string(v.Bytes())
	return nil
}

func writeObjectPath(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	m := t.At(ptr).Addr().Interface().(encoding.TextMarshaler)
	b, err := m.MarshalText()
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindFieldKindMismatch).
			Path(string(w.Descriptor().Name())).
			GoType(t.String()).
			Detail("marshal text").
			Cause(err).
			Build()
	}
	return w.SetBytes(b)
}

func readObjectPath(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if v.Kind() != wire.KindString {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	u := t.At(ptr).Addr().Interface().(encoding.TextUnmarshaler)
	if err := u.UnmarshalText(bytes.Clone(v.Bytes())); err != nil {
		return parseMismatch(r, t, string(v.Bytes()), err)
	}
	return nil
}
