package transcoder

import (
	"math"
	"strconv"
	"strings"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
)

func parseMismatch(r wire.Reader, t *native.Type, text string, cause error) error {
	return errors.New(errors.PhaseDecode, errors.KindFieldKindMismatch).
		Path(string(r.Descriptor().Name())).
		GoType(t.String()).
		WireType(r.Descriptor().Kind().String()).
		Detail("cannot convert %q", text).
		Cause(cause).
		Build()
}

// leafText returns the trimmed payload of a string leaf.
func leafText(v wire.Value) (string, bool) {
	if v.Kind() != wire.KindString {
		return "", false
	}
	return strings.TrimSpace(string(v.Bytes())), true
}

func leafInt(r wire.Reader, v wire.Value, t *native.Type) (int64, error) {
	if i, ok := v.Int(); ok {
		return i, nil
	}
	if text, ok := leafText(v); ok {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, parseMismatch(r, t, text, err)
		}
		return i, nil
	}
	return 0, mismatch(errors.PhaseDecode, r.Descriptor(), t)
}

func leafUint(r wire.Reader, v wire.Value, t *native.Type) (uint64, error) {
	if u, ok := v.Uint(); ok {
		return u, nil
	}
	if text, ok := leafText(v); ok {
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return 0, parseMismatch(r, t, text, err)
		}
		return u, nil
	}
	return 0, mismatch(errors.PhaseDecode, r.Descriptor(), t)
}

func leafFloat(r wire.Reader, v wire.Value, t *native.Type) (float64, error) {
	if f, ok := v.Float(); ok {
		return f, nil
	}
	if text, ok := leafText(v); ok {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, parseMismatch(r, t, text, err)
		}
		return f, nil
	}
	return 0, mismatch(errors.PhaseDecode, r.Descriptor(), t)
}

func writeBool(_ *state, w *wire.Writer, _ *native.Type, ptr unsafe.Pointer) error {
	return w.SetBool(*(*bool)(ptr))
}

func readBool(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if f, ok := v.Float(); ok {
		*(*bool)(ptr) = f != 0
		return nil
	}
	if text, ok := leafText(v); ok {
		b, err := strconv.ParseBool(text)
		if err != nil {
			return parseMismatch(r, t, text, err)
		}
		*(*bool)(ptr) = b
		return nil
	}
	return mismatch(errors.PhaseDecode, r.Descriptor(), t)
}

func writeInt(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	switch t.Kind {
	case native.KindInt8:
		return w.SetInt32(int32(*(*int8)(ptr)))
	case native.KindInt16:
		return w.SetInt32(int32(*(*int16)(ptr)))
	case native.KindInt32:
		return w.SetInt32(*(*int32)(ptr))
	case native.KindInt64:
		return w.SetInt64(*(*int64)(ptr))
	default:
		return w.SetInt64(int64(*(*int)(ptr)))
	}
}

func readInt(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	i, err := leafInt(r, v, t)
	if err != nil {
		return err
	}
	switch t.Kind {
	case native.KindInt8:
		*(*int8)(ptr) = int8(i)
	case native.KindInt16:
		*(*int16)(ptr) = int16(i)
	case native.KindInt32:
		*(*int32)(ptr) = int32(i)
	case native.KindInt64:
		*(*int64)(ptr) = i
	default:
		*(*int)(ptr) = int(i)
	}
	return nil
}

// writeNarrow stores an unsigned value narrower than 32 bits in either a
// signed or an unsigned 32-bit field.
func writeNarrow(w *wire.Writer, n uint32) error {
	if w.IsUint32() {
		return w.SetUint32(n)
	}
	return w.SetInt32(int32(n))
}

func writeUint(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	switch t.Kind {
	case native.KindByte:
		return writeNarrow(w, uint32(*(*uint8)(ptr)))
	case native.KindUint16:
		return writeNarrow(w, uint32(*(*uint16)(ptr)))
	case native.KindUint32:
		return w.SetUint32(*(*uint32)(ptr))
	case native.KindUint64:
		return w.SetUint64(*(*uint64)(ptr))
	default:
		return w.SetUint64(uint64(*(*uint)(ptr)))
	}
}

func readUint(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	if t.Kind == native.KindByte {
		i, err := leafInt(r, v, t)
		if err != nil {
			return err
		}
		if i < 0 || i > math.MaxUint8 {
			return errors.Overflow(errors.PhaseDecode, []string{string(r.Descriptor().Name())}, i, t.String())
		}
		*(*uint8)(ptr) = uint8(i)
		return nil
	}

	u, err := leafUint(r, v, t)
	if err != nil {
		return err
	}
	switch t.Kind {
	case native.KindUint16:
		*(*uint16)(ptr) = uint16(u)
	case native.KindUint32:
		*(*uint32)(ptr) = uint32(u)
	case native.KindUint64:
		*(*uint64)(ptr) = u
	default:
		*(*uint)(ptr) = uint(u)
	}
	return nil
}

func writeFloat(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	if t.Kind == native.KindFloat32 {
		return w.SetFloat(*(*float32)(ptr))
	}
	return w.SetDouble(*(*float64)(ptr))
}

func readFloat(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	f, err := leafFloat(r, v, t)
	if err != nil {
		return err
	}
	if t.Kind == native.KindFloat32 {
		*(*float32)(ptr) = float32(f)
	} else {
		*(*float64)(ptr) = f
	}
	return nil
}

// writeEnum always emits the enumerator number, never its name.
func writeEnum(_ *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	rv := t.At(ptr)
	if rv.CanInt() {
		return w.SetInt32(int32(rv.Int()))
	}
	return w.SetInt32(int32(rv.Uint()))
}

// readEnum accepts a number, or a string holding either a number or an
// enumerator name known to the Go type.
func readEnum(_ *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error {
	n, ok := v.Int()
	if !ok {
		text, isText := leafText(v)
		if !isText {
			return mismatch(errors.PhaseDecode, r.Descriptor(), t)
		}
		if n, ok = enumByName(t, text); !ok {
			return errors.New(errors.PhaseDecode, errors.KindFieldKindMismatch).
				Path(string(r.Descriptor().Name())).
				GoType(t.String()).
				Detail("unknown enumerator %q", text).
				Build()
		}
	}

	rv := t.At(ptr)
	if rv.CanInt() {
		rv.SetInt(n)
	} else {
		rv.SetUint(uint64(n))
	}
	return nil
}

func enumByName(t *native.Type, name string) (int64, bool) {
	if i, err := strconv.ParseInt(name, 10, 64); err == nil {
		return i, true
	}
	return t.EnumValue(name)
}
