package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // schema registration
	PhaseResolve  Phase = "resolve"  // native type to message lookup
	PhaseEncode   Phase = "encode"   // Go to wire message
	PhaseDecode   Phase = "decode"   // wire message to Go
	PhaseWire     Phase = "wire"     // protobuf binary codec
)

// Kind categorizes the error
type Kind string

const (
	KindSchemaNotFound     Kind = "schema_not_found"
	KindSchemaParse        Kind = "schema_parse"
	KindFieldKindMismatch  Kind = "field_kind_mismatch"
	KindFieldNameUnmatched Kind = "field_name_unmatched"
	KindWireCodec          Kind = "wire_codec"
	KindDuplicate          Kind = "duplicate"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindInvalidInput       Kind = "invalid_input"
	KindNilPointer         Kind = "nil_pointer"
	KindUnsupported        Kind = "unsupported"
	KindOverflow           Kind = "overflow"
	KindMaxDepth           Kind = "max_depth"
)

// Sentinel targets for errors.Is. They match any phase.
var (
	SchemaNotFound     = &Error{Kind: KindSchemaNotFound}
	SchemaParse        = &Error{Kind: KindSchemaParse}
	FieldKindMismatch  = &Error{Kind: KindFieldKindMismatch}
	FieldNameUnmatched = &Error{Kind: KindFieldNameUnmatched}
	WireCodec          = &Error{Kind: KindWireCodec}
)

// Error is the structured error type used throughout protobind
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	WireType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.WireType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.WireType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", wire type ")
			b.WriteString(e.WireType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("wire type ")
			b.WriteString(e.WireType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.WireType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// WireType sets the protobuf type name
func (b *Builder) WireType(t string) *Builder {
	b.err.WireType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// SchemaNotFoundFor creates an error for a native type with no registered message
func SchemaNotFoundFor(phase Phase, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSchemaNotFound,
		GoType: goType,
		Detail: "no message registered for type",
	}
}

// MessageNotFound creates an error for an unknown message name
func MessageNotFound(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSchemaNotFound,
		Detail: fmt.Sprintf("message %q not found", name),
	}
}

// ParseFailed creates a schema parse error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindSchemaParse,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Duplicate creates a duplicate registration error
func Duplicate(what, name string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already registered", what, name),
	}
}

// KindMismatch creates a field kind mismatch error
func KindMismatch(phase Phase, path []string, goType, wireType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindFieldKindMismatch,
		Path:     path,
		GoType:   goType,
		WireType: wireType,
	}
}

// NameUnmatched creates an error for a schema field with no native counterpart
func NameUnmatched(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldNameUnmatched,
		Path:   path,
		GoType: goType,
		Detail: "no field with matching name",
	}
}

// Codec wraps a wire encode or decode failure
func Codec(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseWire,
		Kind:   KindWireCodec,
		Detail: detail,
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		GoType: targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// MaxDepth creates a recursion limit error
func MaxDepth(phase Phase, path []string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMaxDepth,
		Path:   path,
		Detail: fmt.Sprintf("nesting exceeds %d levels", limit),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Aborts reports whether err must stop an encode or decode call.
// Field-level mismatches are reported and skipped instead.
func Aborts(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return err != nil
	}
	switch e.Kind {
	case KindFieldKindMismatch, KindFieldNameUnmatched, KindOutOfBounds, KindOverflow:
		return false
	}
	return true
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
