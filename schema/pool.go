package schema

import (
	"path"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/wire"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Named is implemented by Go types that name their message explicitly.
type Named interface {
	ProtoMessageName() string
}

var namedType = reflect.TypeFor[Named]()

// Pool is a set of registered file descriptors plus the lookup caches
// that map Go types to messages.
//
// Registration is not synchronized: register everything before encode or
// decode traffic starts. Lookups are safe for concurrent use.
type Pool struct {
	files  *protoregistry.Files
	logger *zap.Logger

	// short name of every top-level message
	byName map[string]protoreflect.MessageDescriptor

	byType sync.Map // reflect.Type -> protoreflect.MessageDescriptor
	native sync.Map // protoreflect.FullName -> reflect.Type
	bound  sync.Map // reflect.Type -> protoreflect.FullName

	id PoolID
}

func newPool(id PoolID, logger *zap.Logger) *Pool {
	return &Pool{
		id:     id,
		logger: logger,
		files:  new(protoregistry.Files),
		byName: make(map[string]protoreflect.MessageDescriptor),
	}
}

// NewPool creates a standalone pool that is not owned by a Registry.
func NewPool() *Pool {
	return newPool(DefaultPool, Logger())
}

// ID returns the pool's id within its registry.
func (p *Pool) ID() PoolID {
	return p.id
}

func (p *Pool) reset() {
	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		wire.ForgetFile(fd)
		return true
	})
	p.files = new(protoregistry.Files)
	p.byName = make(map[string]protoreflect.MessageDescriptor)
	p.byType.Clear()
	p.native.Clear()
	p.bound.Clear()
}

// Files returns the number of registered files.
func (p *Pool) Files() int {
	return p.files.NumFiles()
}

// RegisterDescriptor parses one serialized FileDescriptorProto and adds it.
// Every dependency must already be registered in this pool or be one of the
// well-known files linked into the binary.
func (p *Pool) RegisterDescriptor(data []byte) error {
	fdp := new(descriptorpb.FileDescriptorProto)
	if err := proto.Unmarshal(data, fdp); err != nil {
		return errors.ParseFailed("file descriptor", err)
	}
	return p.registerFile(fdp)
}

// RegisterDescriptorSet parses a serialized FileDescriptorSet and registers
// its files in dependency order. Files already present are skipped and files
// that fail are logged and skipped. It returns the number of newly
// registered files; an error is returned only for a malformed set or when
// nothing at all could be registered.
func (p *Pool) RegisterDescriptorSet(data []byte) (int, error) {
	set := new(descriptorpb.FileDescriptorSet)
	if err := proto.Unmarshal(data, set); err != nil {
		return 0, errors.ParseFailed("file descriptor set", err)
	}

	var (
		count    int
		firstErr error
	)
	for _, fdp := range dependencyOrder(set.GetFile()) {
		if _, err := p.files.FindFileByPath(fdp.GetName()); err == nil {
			continue
		}
		if err := p.registerFile(fdp); err != nil {
			p.logger.Warn("skip file descriptor",
				zap.String("file", fdp.GetName()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}

	if count == 0 && firstErr != nil {
		return 0, firstErr
	}
	return count, nil
}

// dependencyOrder returns files so that each one follows the files it
// imports. Names outside the set are left for the resolver.
func dependencyOrder(files []*descriptorpb.FileDescriptorProto) []*descriptorpb.FileDescriptorProto {
	byPath := make(map[string]*descriptorpb.FileDescriptorProto, len(files))
	for _, f := range files {
		byPath[f.GetName()] = f
	}

	ordered := make([]*descriptorpb.FileDescriptorProto, 0, len(files))
	visited := make(map[string]bool, len(files))

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		f, ok := byPath[name]
		if !ok {
			return
		}
		for _, dep := range f.GetDependency() {
			visit(dep)
		}
		ordered = append(ordered, f)
	}

	for _, f := range files {
		visit(f.GetName())
	}
	return ordered
}

func (p *Pool) registerFile(fdp *descriptorpb.FileDescriptorProto) error {
	name := fdp.GetName()
	if name == "" {
		return errors.ParseFailed("file descriptor", errors.InvalidInput(errors.PhaseRegister, "file has no name"))
	}
	if _, err := p.files.FindFileByPath(name); err == nil {
		return errors.Duplicate("file", name)
	}

	fd, err := protodesc.NewFile(fdp, resolver{p.files})
	if err != nil {
		return errors.ParseFailed(name, err)
	}
	if err := p.files.RegisterFile(fd); err != nil {
		return errors.New(errors.PhaseRegister, errors.KindDuplicate).
			Detail("register %s", name).
			Cause(err).
			Build()
	}

	msgs := fd.Messages()
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		short := string(md.Name())
		if prev, ok := p.byName[short]; ok {
			p.logger.Warn("short message name already mapped",
				zap.String("name", short),
				zap.String("kept", string(prev.FullName())),
				zap.String("ignored", string(md.FullName())))
			continue
		}
		p.byName[short] = md
	}

	p.logger.Debug("registered file descriptor",
		zap.Uint8("pool", uint8(p.id)),
		zap.String("file", name),
		zap.Int("messages", msgs.Len()))
	return nil
}

// FindMessage looks up a message by full name, falling back to the short
// name of a top-level message.
func (p *Pool) FindMessage(name string) (protoreflect.MessageDescriptor, bool) {
	if d, err := p.files.FindDescriptorByName(protoreflect.FullName(name)); err == nil {
		if md, ok := d.(protoreflect.MessageDescriptor); ok {
			return md, true
		}
	}
	md, ok := p.byName[name]
	return md, ok
}

// FindMessageByNativeType returns the message bound to Go type t.
// Candidates are tried in order: an explicit Bind, the type's
// ProtoMessageName method, the type name as a top-level short name, and the
// Go package name joined with the type name as a full name.
func (p *Pool) FindMessageByNativeType(t reflect.Type) (protoreflect.MessageDescriptor, bool) {
	if t == nil {
		return nil, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if cached, ok := p.byType.Load(t); ok {
		return cached.(protoreflect.MessageDescriptor), true
	}

	md, ok := p.resolveNativeType(t)
	if !ok {
		return nil, false
	}

	actual, _ := p.byType.LoadOrStore(t, md)
	md = actual.(protoreflect.MessageDescriptor)
	p.native.LoadOrStore(md.FullName(), t)
	return md, true
}

func (p *Pool) resolveNativeType(t reflect.Type) (protoreflect.MessageDescriptor, bool) {
	if name, ok := p.bound.Load(t); ok {
		return p.findFull(name.(protoreflect.FullName))
	}

	if reflect.PointerTo(t).Implements(namedType) {
		named := reflect.New(t).Interface().(Named)
		return p.FindMessage(named.ProtoMessageName())
	}

	if t.Name() == "" {
		return nil, false
	}
	if md, ok := p.byName[t.Name()]; ok {
		return md, true
	}
	if t.PkgPath() != "" {
		full := protoreflect.FullName(path.Base(t.PkgPath()) + "." + t.Name())
		return p.findFull(full)
	}
	return nil, false
}

func (p *Pool) findFull(name protoreflect.FullName) (protoreflect.MessageDescriptor, bool) {
	d, err := p.files.FindDescriptorByName(name)
	if err != nil {
		return nil, false
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	return md, ok
}

// Bind maps Go type t to a registered message explicitly.
// It overrides name-based lookup for t.
func (p *Pool) Bind(t reflect.Type, name protoreflect.FullName) error {
	if t == nil {
		return errors.InvalidInput(errors.PhaseRegister, "bind: nil type")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("bind: only struct types map to messages").
			Build()
	}

	md, ok := p.findFull(name)
	if !ok {
		return errors.MessageNotFound(errors.PhaseRegister, string(name))
	}

	p.bound.Store(t, name)
	p.byType.Store(t, md)
	p.native.Store(name, t)
	return nil
}

// NativeType returns the Go type last bound or resolved to the named message.
func (p *Pool) NativeType(name protoreflect.FullName) (reflect.Type, bool) {
	t, ok := p.native.Load(name)
	if !ok {
		return nil, false
	}
	return t.(reflect.Type), true
}

// Messages returns every message in the pool, nested ones included, sorted
// by full name. Map entry messages are omitted.
func (p *Pool) Messages() []protoreflect.MessageDescriptor {
	var out []protoreflect.MessageDescriptor
	var walk func(protoreflect.MessageDescriptors)
	walk = func(msgs protoreflect.MessageDescriptors) {
		for i := 0; i < msgs.Len(); i++ {
			md := msgs.Get(i)
			if md.IsMapEntry() {
				continue
			}
			out = append(out, md)
			walk(md.Messages())
		}
	}

	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		walk(fd.Messages())
		return true
	})

	slices.SortFunc(out, func(a, b protoreflect.MessageDescriptor) int {
		return strings.Compare(string(a.FullName()), string(b.FullName()))
	})
	return out
}

// FileNames returns the paths of all registered files, sorted.
func (p *Pool) FileNames() []string {
	names := make([]string, 0, p.files.NumFiles())
	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		names = append(names, fd.Path())
		return true
	})
	slices.Sort(names)
	return names
}

// resolver looks in the pool first and then in the process-wide registry,
// which carries the well-known types.
type resolver struct {
	local *protoregistry.Files
}

func (r resolver) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	if fd, err := r.local.FindFileByPath(path); err == nil {
		return fd, nil
	}
	return protoregistry.GlobalFiles.FindFileByPath(path)
}

func (r resolver) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	if d, err := r.local.FindDescriptorByName(name); err == nil {
		return d, nil
	}
	return protoregistry.GlobalFiles.FindDescriptorByName(name)
}
