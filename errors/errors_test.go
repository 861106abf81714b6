package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseEncode,
				Kind:     KindFieldKindMismatch,
				Path:     []string{"Player", "stats", "score"},
				GoType:   "string",
				WireType: "int32",
				Detail:   "cannot convert",
			},
			contains: []string{"[encode]", "field_kind_mismatch", "Player.stats.score", "Go type string", "wire type int32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "wire type only",
			err: &Error{
				Phase:    PhaseDecode,
				Kind:     KindFieldKindMismatch,
				WireType: "bytes",
			},
			contains: []string{"wire type bytes"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseWire,
				Kind:   KindWireCodec,
				Detail: "truncated payload",
				Cause:  errors.New("unexpected EOF"),
			},
			contains: []string{"[wire]", "wire_codec", "truncated payload", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRegister,
		Kind:  KindSchemaParse,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindFieldKindMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseEncode, Kind: KindFieldKindMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindFieldKindMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, FieldKindMismatch) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, SchemaNotFound) {
		t.Error("sentinel of another kind should not match")
	}

	wrapped := fmt.Errorf("encode Player: %w", err)
	if !errors.Is(wrapped, FieldKindMismatch) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel *Error
	}{
		{"schema not found", SchemaNotFoundFor(PhaseEncode, "main.Player"), SchemaNotFound},
		{"message not found", MessageNotFound(PhaseResolve, "game.Player"), SchemaNotFound},
		{"schema parse", ParseFailed("file descriptor", errors.New("bad")), SchemaParse},
		{"kind mismatch", KindMismatch(PhaseDecode, nil, "bool", "string"), FieldKindMismatch},
		{"name unmatched", NameUnmatched(PhaseEncode, []string{"x"}, "main.T"), FieldNameUnmatched},
		{"wire codec", Codec("truncated", nil), WireCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v does not match sentinel %v", tt.err, tt.sentinel.Kind)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEncode, KindFieldKindMismatch).
		Path("Player", "name").
		GoType("string").
		WireType("uint32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseEncode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEncode)
	}
	if err.Kind != KindFieldKindMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindFieldKindMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "Player" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [Player name]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.WireType != "uint32" {
		t.Errorf("WireType = %v, want 'uint32'", err.WireType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Duplicate", func(t *testing.T) {
		err := Duplicate("file", "game.proto")
		if err.Kind != KindDuplicate || err.Phase != PhaseRegister {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "game.proto") {
			t.Errorf("Detail = %q, should name the file", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseDecode, []string{"list"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseEncode, []string{"ptr"}, "*Player")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
		if err.GoType != "*Player" {
			t.Errorf("GoType = %v, want '*Player'", err.GoType)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDecode, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("MaxDepth", func(t *testing.T) {
		err := MaxDepth(PhaseEncode, []string{"Node", "next"}, 64)
		if err.Kind != KindMaxDepth {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMaxDepth)
		}
		if !strings.Contains(err.Error(), "64") {
			t.Errorf("message %q should contain limit", err.Error())
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseEncode, "chan types")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseDecode, "destination must be a non-nil pointer")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
	})
}

func TestAborts(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), true},
		{"schema not found", SchemaNotFoundFor(PhaseEncode, "T"), true},
		{"wire codec", Codec("bad varint", nil), true},
		{"max depth", MaxDepth(PhaseEncode, nil, 1), true},
		{"kind mismatch", KindMismatch(PhaseEncode, nil, "a", "b"), false},
		{"name unmatched", NameUnmatched(PhaseEncode, nil, "T"), false},
		{"out of bounds", OutOfBounds(PhaseDecode, nil, 1, 0), false},
		{"overflow", Overflow(PhaseDecode, nil, 300, "uint8"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aborts(tt.err); got != tt.want {
				t.Errorf("Aborts() = %v, want %v", got, tt.want)
			}
		})
	}
}
