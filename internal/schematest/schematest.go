// Package schematest builds serialized descriptors for tests.
package schematest

import (
	"strings"
	"unicode"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

type Type = descriptorpb.FieldDescriptorProto_Type

const (
	Bool     = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	Int32    = descriptorpb.FieldDescriptorProto_TYPE_INT32
	Sint32   = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	Sfixed32 = descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
	Uint32   = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	Fixed32  = descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	Int64    = descriptorpb.FieldDescriptorProto_TYPE_INT64
	Sint64   = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	Sfixed64 = descriptorpb.FieldDescriptorProto_TYPE_SFIXED64
	Uint64   = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	Fixed64  = descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	Float    = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	Double   = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	String   = descriptorpb.FieldDescriptorProto_TYPE_STRING
	Bytes    = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	Enum     = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	Message  = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	Group    = descriptorpb.FieldDescriptorProto_TYPE_GROUP
)

// FileBuilder assembles a FileDescriptorProto.
type FileBuilder struct {
	fd *descriptorpb.FileDescriptorProto
}

// File starts a proto3 file.
func File(name, pkg string) *FileBuilder {
	return &FileBuilder{fd: &descriptorpb.FileDescriptorProto{
		Name:    proto.String(name),
		Package: proto.String(pkg),
		Syntax:  proto.String("proto3"),
	}}
}

// Proto2 switches the file to proto2 syntax.
func (b *FileBuilder) Proto2() *FileBuilder {
	b.fd.Syntax = proto.String("proto2")
	return b
}

// Import adds dependencies.
func (b *FileBuilder) Import(paths ...string) *FileBuilder {
	b.fd.Dependency = append(b.fd.Dependency, paths...)
	return b
}

// Message adds a top-level message.
func (b *FileBuilder) Message(m *MessageBuilder) *FileBuilder {
	b.fd.MessageType = append(b.fd.MessageType, m.Proto())
	return b
}

// Enum adds a top-level enum whose values are numbered from first.
func (b *FileBuilder) Enum(name string, first int32, values ...string) *FileBuilder {
	b.fd.EnumType = append(b.fd.EnumType, enumProto(name, first, values))
	return b
}

// Proto returns the built descriptor.
func (b *FileBuilder) Proto() *descriptorpb.FileDescriptorProto {
	return b.fd
}

// Bytes returns the serialized descriptor.
func (b *FileBuilder) Bytes() []byte {
	return mustMarshal(b.fd)
}

// Descriptor builds the file against deps and the global registry.
func (b *FileBuilder) Descriptor(deps ...protoreflect.FileDescriptor) protoreflect.FileDescriptor {
	files := new(protoregistry.Files)
	for _, d := range deps {
		if err := files.RegisterFile(d); err != nil {
			panic(err)
		}
	}
	fd, err := protodesc.NewFile(b.fd, chain{files})
	if err != nil {
		panic(err)
	}
	return fd
}

// Set serializes files as a FileDescriptorSet, in the given order.
func Set(files ...*FileBuilder) []byte {
	set := &descriptorpb.FileDescriptorSet{}
	for _, f := range files {
		set.File = append(set.File, f.fd)
	}
	return mustMarshal(set)
}

// MessageBuilder assembles a DescriptorProto.
type MessageBuilder struct {
	m    *descriptorpb.DescriptorProto
	last *descriptorpb.FieldDescriptorProto
}

// Msg starts a message.
func Msg(name string) *MessageBuilder {
	return &MessageBuilder{m: &descriptorpb.DescriptorProto{Name: proto.String(name)}}
}

func (mb *MessageBuilder) add(f *descriptorpb.FieldDescriptorProto) *MessageBuilder {
	mb.m.Field = append(mb.m.Field, f)
	mb.last = f
	return mb
}

func field(name string, num int32, typ Type, label descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName(name)),
		Number:   proto.Int32(num),
		Type:     typ.Enum(),
		Label:    label.Enum(),
	}
}

const (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

// Field adds a singular scalar field.
func (mb *MessageBuilder) Field(name string, num int32, typ Type) *MessageBuilder {
	return mb.add(field(name, num, typ, optional))
}

// Repeated adds a repeated scalar field.
func (mb *MessageBuilder) Repeated(name string, num int32, typ Type) *MessageBuilder {
	return mb.add(field(name, num, typ, repeated))
}

// Ref adds a singular message or enum field referring to the fully
// qualified typeName, for example ".game.Vec3".
func (mb *MessageBuilder) Ref(name string, num int32, typ Type, typeName string) *MessageBuilder {
	f := field(name, num, typ, optional)
	f.TypeName = proto.String(typeName)
	return mb.add(f)
}

// RepeatedRef adds a repeated message or enum field.
func (mb *MessageBuilder) RepeatedRef(name string, num int32, typ Type, typeName string) *MessageBuilder {
	f := field(name, num, typ, repeated)
	f.TypeName = proto.String(typeName)
	return mb.add(f)
}

// Optional adds a proto3 optional scalar, backed by a synthetic oneof.
func (mb *MessageBuilder) Optional(name string, num int32, typ Type) *MessageBuilder {
	f := field(name, num, typ, optional)
	f.Proto3Optional = proto.Bool(true)
	f.OneofIndex = proto.Int32(int32(len(mb.m.OneofDecl)))
	mb.m.OneofDecl = append(mb.m.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String("_" + name)})
	return mb.add(f)
}

// Oneof declares a oneof; fields added by fn belong to it.
func (mb *MessageBuilder) Oneof(name string, fn func(*MessageBuilder)) *MessageBuilder {
	idx := int32(len(mb.m.OneofDecl))
	mb.m.OneofDecl = append(mb.m.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(name)})
	start := len(mb.m.Field)
	fn(mb)
	for _, f := range mb.m.Field[start:] {
		f.OneofIndex = proto.Int32(idx)
	}
	return mb
}

// Map adds a map field. valueTypeName is required for message and enum
// values and ignored otherwise.
func (mb *MessageBuilder) Map(name string, num int32, key, value Type, valueTypeName string) *MessageBuilder {
	entryName := mapEntryName(name)
	entry := &descriptorpb.DescriptorProto{
		Name:    proto.String(entryName),
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
		Field: []*descriptorpb.FieldDescriptorProto{
			field("key", 1, key, optional),
			field("value", 2, value, optional),
		},
	}
	if valueTypeName != "" {
		entry.Field[1].TypeName = proto.String(valueTypeName)
	}
	mb.m.NestedType = append(mb.m.NestedType, entry)

	f := field(name, num, Message, repeated)
	f.TypeName = proto.String(entryName) // resolved relative to the message
	return mb.add(f)
}

// Default sets the proto2 default of the last added field.
func (mb *MessageBuilder) Default(v string) *MessageBuilder {
	mb.last.DefaultValue = proto.String(v)
	return mb
}

// Unpacked disables packing on the last added field.
func (mb *MessageBuilder) Unpacked() *MessageBuilder {
	mb.last.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(false)}
	return mb
}

// Nested adds a nested message.
func (mb *MessageBuilder) Nested(n *MessageBuilder) *MessageBuilder {
	mb.m.NestedType = append(mb.m.NestedType, n.Proto())
	return mb
}

// Proto returns the built descriptor.
func (mb *MessageBuilder) Proto() *descriptorpb.DescriptorProto {
	return mb.m
}

func enumProto(name string, first int32, values []string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(first + int32(i)),
		})
	}
	return e
}

func mapEntryName(field string) string {
	var b strings.Builder
	upper := true
	for _, r := range field {
		switch {
		case r == '_':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("Entry")
	return b.String()
}

func jsonName(field string) string {
	var b strings.Builder
	upper := false
	for _, r := range field {
		switch {
		case r == '_':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func mustMarshal(m proto.Message) []byte {
	b, err := proto.Marshal(m)
	if err != nil {
		panic(err)
	}
	return b
}

type chain struct {
	local *protoregistry.Files
}

func (c chain) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	if fd, err := c.local.FindFileByPath(path); err == nil {
		return fd, nil
	}
	return protoregistry.GlobalFiles.FindFileByPath(path)
}

func (c chain) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	if d, err := c.local.FindDescriptorByName(name); err == nil {
		return d, nil
	}
	return protoregistry.GlobalFiles.FindDescriptorByName(name)
}
