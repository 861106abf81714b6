package transcoder

import (
	"strings"
	"unsafe"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// state is the per-call context threaded through the visitors.
type state struct {
	arena    *wire.Arena
	compiler *Compiler
	cfg      *Config
	path     []string
	depth    int
}

func newState(cfg *Config, c *Compiler, a *wire.Arena) *state {
	s := getState()
	s.cfg = cfg
	s.compiler = c
	s.arena = a
	return s
}

func (s *state) push(name string) {
	s.path = append(s.path, name)
}

func (s *state) pop() {
	s.path = s.path[:len(s.path)-1]
}

func (s *state) enter(phase errors.Phase) error {
	if s.depth >= s.cfg.MaxDepth {
		return errors.MaxDepth(phase, s.pathCopy(), s.cfg.MaxDepth)
	}
	s.depth++
	return nil
}

func (s *state) leave() {
	s.depth--
}

func (s *state) pathCopy() []string {
	return append([]string(nil), s.path...)
}

// report records a skipped field.
func (s *state) report(err error) {
	if e, ok := err.(*errors.Error); ok {
		e.Path = s.pathCopy()
	}
	s.cfg.Logger.Warn("field skipped",
		zap.String("field", strings.Join(s.path, ".")),
		zap.Error(err))
	if s.cfg.Diagnostics != nil {
		s.cfg.Diagnostics(err)
	}
}

// check reports a field-level error and swallows it; aborting errors pass.
func (s *state) check(err error) error {
	if err == nil || errors.Aborts(err) {
		return err
	}
	s.report(err)
	return nil
}

// discard drops a partially written field after err. A failed clear is
// returned in place of err.
func discard(w *wire.Writer, err error) error {
	if cerr := w.Clear(); cerr != nil {
		return cerr
	}
	return err
}

func mismatch(phase errors.Phase, fd protoreflect.FieldDescriptor, t *native.Type) error {
	wt := fd.Kind().String()
	switch {
	case fd.IsMap():
		wt = "map"
	case fd.IsList():
		wt = "repeated " + wt
	}
	return errors.KindMismatch(phase, []string{string(fd.Name())}, t.String(), wt)
}

// writeValue encodes the Go value at ptr through w. A repeated wire field
// written from a scalar Go value receives it as its only element.
func (s *state) writeValue(w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error {
	if w.IsArray() && !takesArray(t) {
		if t.IsZero(ptr) {
			return nil
		}
		ew, err := w.Element(0)
		if err != nil {
			return err
		}
		w = ew
	}
	v := &visitors[t.Kind]
	if v.write == nil {
		return mismatch(errors.PhaseEncode, w.Descriptor(), t)
	}
	return v.write(s, w, t, ptr)
}

// readValue decodes r into the Go value at ptr. A repeated wire field read
// into a non-container Go value yields its first element.
func (s *state) readValue(r wire.Reader, t *native.Type, ptr unsafe.Pointer) error {
	if r.IsArray() && !takesArray(t) {
		if r.ArraySize() == 0 {
			t.At(ptr).SetZero()
			return nil
		}
		el, err := r.Element(0)
		if err != nil {
			return err
		}
		return s.readValue(el, t, ptr)
	}

	v := &visitors[t.Kind]
	val, node := r.Dispatch()
	if node {
		if v.readNode == nil {
			return mismatch(errors.PhaseDecode, r.Descriptor(), t)
		}
		return v.readNode(s, r, t, ptr)
	}
	if v.readLeaf == nil {
		return mismatch(errors.PhaseDecode, r.Descriptor(), t)
	}
	return v.readLeaf(s, r, val, t, ptr)
}

func takesArray(t *native.Type) bool {
	switch t.Kind {
	case native.KindSlice, native.KindSet, native.KindPointer:
		return true
	}
	return false
}
