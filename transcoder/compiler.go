package transcoder

import (
	"reflect"
	"sync"

	"github.com/wippyai/protobind/native"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Compiler pairs message descriptors with Go struct types and caches the
// resulting field plans.
type Compiler struct {
	cache sync.Map // cacheKey -> *Plan
}

type cacheKey struct {
	desc   protoreflect.MessageDescriptor
	goType reflect.Type
}

// Plan binds every field of a message to the same-named field of a Go
// struct.
type Plan struct {
	Desc   protoreflect.MessageDescriptor
	Type   *native.Type
	Fields []Binding
}

// Binding is one message field and its Go counterpart.
type Binding struct {
	Desc  protoreflect.FieldDescriptor
	Field *native.Field // nil when no Go field has the name
	Oneof bool          // member of a declared oneof
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile returns the plan for md and struct type t.
// Names match exactly; there is no positional fallback.
func (c *Compiler) Compile(md protoreflect.MessageDescriptor, t *native.Type) *Plan {
	key := cacheKey{desc: md, goType: t.Go}
	if cached, ok := c.cache.Load(key); ok {
		return cached.(*Plan)
	}

	fields := md.Fields()
	plan := &Plan{
		Desc:   md,
		Type:   t,
		Fields: make([]Binding, fields.Len()),
	}
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		b := Binding{Desc: fd}
		if f, ok := t.Field(string(fd.Name())); ok {
			b.Field = f
		}
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			b.Oneof = true
		}
		plan.Fields[i] = b
	}

	actual, _ := c.cache.LoadOrStore(key, plan)
	return actual.(*Plan)
}

// Reset drops every cached plan.
func (c *Compiler) Reset() {
	c.cache.Clear()
}
