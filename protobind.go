package protobind

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/protobind/schema"
	"github.com/wippyai/protobind/transcoder"
	"github.com/wippyai/protobind/wire"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Variant holds a captured message whose Go type is chosen later.
type Variant = transcoder.Variant

// Options configures a Codec.
type Options struct {
	// Logger receives registration events and field diagnostics.
	Logger *zap.Logger

	// Registry holds the schema pools. A private registry is created when nil.
	Registry *schema.Registry

	// Diagnostics, when set, is called with every skipped-field error.
	Diagnostics func(error)

	// MaxDepth bounds struct nesting during encode and decode.
	MaxDepth int

	// Pool selects the registry pool the codec reads and registers into.
	Pool schema.PoolID
}

// DefaultOptions returns default codec configuration.
func DefaultOptions() Options {
	return Options{
		Logger:   zap.NewNop(),
		MaxDepth: wire.MaxDepth,
		Pool:     schema.DefaultPool,
	}
}

// Codec converts Go structs to and from protobuf messages described by
// descriptors registered at runtime. It is safe for concurrent encode and
// decode once registration is done.
type Codec struct {
	pool     *schema.Pool
	compiler *transcoder.Compiler
	encoder  *transcoder.Encoder
	decoder  *transcoder.Decoder
	options  Options
}

// New creates a Codec with the given options.
func New(opts Options) *Codec {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = schema.NewRegistry(schema.Options{Logger: opts.Logger})
	}

	pool := opts.Registry.Pool(opts.Pool)
	cfg := transcoder.Config{
		Pool:        pool,
		Logger:      opts.Logger,
		Diagnostics: opts.Diagnostics,
		MaxDepth:    opts.MaxDepth,
	}
	compiler := transcoder.NewCompiler()

	return &Codec{
		pool:     pool,
		compiler: compiler,
		encoder:  transcoder.NewEncoderWithCompiler(cfg, compiler),
		decoder:  transcoder.NewDecoderWithCompiler(cfg, compiler),
		options:  opts,
	}
}

// NewWithDefaults creates a Codec with default options.
func NewWithDefaults() *Codec {
	return New(DefaultOptions())
}

// Options returns the configuration.
func (c *Codec) Options() Options {
	return c.options
}

// Pool returns the schema pool the codec uses.
func (c *Codec) Pool() *schema.Pool {
	return c.pool
}

// RegisterSchema adds one serialized FileDescriptorProto.
// Must be called BEFORE encode or decode traffic starts.
func (c *Codec) RegisterSchema(data []byte) error {
	return c.pool.RegisterDescriptor(data)
}

// RegisterSchemaSet adds every file of a serialized FileDescriptorSet in
// dependency order and returns how many were newly registered.
func (c *Codec) RegisterSchemaSet(data []byte) (int, error) {
	return c.pool.RegisterDescriptorSet(data)
}

// ClearSchemas drops every descriptor of the codec's pool along with the
// cached field plans.
func (c *Codec) ClearSchemas() {
	c.options.Registry.Reset(c.options.Pool)
	c.compiler.Reset()
}

// Bind maps the struct type of v to a registered message, overriding
// name-based lookup. v may be a value, a pointer or a reflect.Type.
func (c *Codec) Bind(v any, name protoreflect.FullName) error {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	return c.pool.Bind(t, name)
}

// Encode marshals v, a struct or a pointer to one.
func (c *Codec) Encode(v any) ([]byte, error) {
	return c.encoder.Encode(v)
}

// Decode unmarshals data into v, a non-nil struct pointer. A failed decode
// leaves v untouched.
func (c *Codec) Decode(data []byte, v any) error {
	return c.decoder.Decode(data, v)
}

// EncodeStruct marshals the struct of type t stored at ptr.
func (c *Codec) EncodeStruct(t reflect.Type, ptr unsafe.Pointer) ([]byte, error) {
	return c.encoder.EncodeStruct(t, ptr)
}

// DecodeStruct unmarshals data into the struct of type t stored at ptr.
func (c *Codec) DecodeStruct(data []byte, t reflect.Type, ptr unsafe.Pointer) error {
	return c.decoder.DecodeStruct(data, t, ptr)
}

// Box encodes v into a Variant that owns its message.
func (c *Codec) Box(v any) (Variant, error) {
	return c.encoder.Box(v)
}

// DecodeVariant decodes the boxed message into out, a struct pointer.
func (c *Codec) DecodeVariant(v Variant, out any) error {
	return c.decoder.DecodeVariant(v, out)
}

// Resolve decodes the boxed message into a new value of the Go type bound
// to it and returns a pointer to that value.
func (c *Codec) Resolve(v Variant) (any, error) {
	return c.decoder.ResolveVariant(v)
}
