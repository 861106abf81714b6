// Package protobind converts Go structs to and from protobuf messages whose
// schema is only known at runtime.
//
// Descriptors arrive as serialized FileDescriptorProto or FileDescriptorSet
// blobs. No generated code is involved: fields are matched by name between
// the message and the Go struct, and values are converted by kind.
//
// # Architecture Overview
//
//	protobind/           Codec facade and Options
//	├── schema/          Descriptor pools, registration, Go type binding
//	├── native/          Go type classification and container helpers
//	├── wire/            Arena of field values, Reader/Writer, binary codec
//	├── transcoder/      Encoder, Decoder, field plans, Variant
//	├── errors/          Structured error types
//	└── cmd/pbdump/      Descriptor and payload inspection tool
//
// # Quick Start
//
//	type Item struct {
//	    Name  string `protobind:"name"`
//	    Count uint32 `protobind:"count"`
//	}
//
//	c := protobind.NewWithDefaults()
//	if _, err := c.RegisterSchemaSet(descriptorSet); err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := c.Encode(Item{Name: "sword", Count: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var out Item
//	err = c.Decode(data, &out)
//
// # Type Binding
//
// A Go struct maps to a message by, in order: an explicit Bind, a
// ProtoMessageName method, the type name as a top-level short name, or the
// Go package name joined with the type name.
//
// # Deferred Decoding
//
// A Variant field captures a sub-message without decoding it. Resolve
// decodes it into the Go type bound to its message, DecodeVariant into a
// type the caller picks.
//
// # Thread Safety
//
// Schema registration is not synchronized and must finish before encode or
// decode traffic starts. After that a Codec is safe for concurrent use.
package protobind
