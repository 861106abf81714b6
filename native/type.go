package native

import (
	"encoding"
	"reflect"
	"sync"
	"unique"
	"unsafe"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// TagName is the struct tag naming the message field a Go field maps to.
// A value of "-" excludes the field.
const TagName = "protobind"

// Enum is implemented by Go enum types that resolve enumerator names.
type Enum interface {
	EnumValue(name string) (int64, bool)
}

// Boxed is implemented by holders of an undecoded message.
type Boxed interface {
	BoxedMessage() protoreflect.FullName
}

var (
	enumType          = reflect.TypeFor[Enum]()
	protoEnumType     = reflect.TypeFor[protoreflect.Enum]()
	boxedType         = reflect.TypeFor[Boxed]()
	nameType          = reflect.TypeFor[Name]()
	textType          = reflect.TypeFor[Text]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Type is the dispatch view of a Go type. Types are immutable once
// returned by TypeOf and shared process-wide.
type Type struct {
	Go     reflect.Type
	Elem   *Type // pointer target, slice element
	Key    *Type // set and map key
	Value  *Type // map value
	Fields []Field
	byName map[string]int
	Kind   Kind
}

// Field is one exported struct field.
type Field struct {
	Type   *Type
	Name   string // message field name: tag value or Go name
	GoName string
	Offset uintptr
	Stride uintptr // element size when Dim > 1
	Index  int
	Dim    int // element count of a fixed array field, 1 otherwise
}

// Addr returns the address of element i of the field within the struct at base.
func (f *Field) Addr(base unsafe.Pointer, i int) unsafe.Pointer {
	return unsafe.Add(base, f.Offset+uintptr(i)*f.Stride)
}

// Field looks up a field by its message field name.
func (t *Type) Field(name string) (*Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.Fields[i], true
}

func (t *Type) String() string {
	if t.Go == nil {
		return "<nil>"
	}
	return t.Go.String()
}

var (
	cache   sync.Map // reflect.Type -> *Type
	buildMu sync.Mutex
)

// TypeOf returns the cached dispatch view of t. Unsupported types, such as
// channels and interfaces, get KindInvalid.
func TypeOf(t reflect.Type) *Type {
	if cached, ok := cache.Load(t); ok {
		return cached.(*Type)
	}

	buildMu.Lock()
	defer buildMu.Unlock()
	if cached, ok := cache.Load(t); ok {
		return cached.(*Type)
	}

	// Recursive types see their own in-progress entry; nothing is
	// published until the whole graph is built.
	building := make(map[reflect.Type]*Type)
	nt := build(t, building)
	for k, v := range building {
		cache.Store(k, v)
	}
	return nt
}

func build(t reflect.Type, building map[reflect.Type]*Type) *Type {
	if cached, ok := cache.Load(t); ok {
		return cached.(*Type)
	}
	if nt, ok := building[t]; ok {
		return nt
	}

	nt := &Type{Go: t}
	building[t] = nt
	nt.Kind = classify(t)

	switch nt.Kind {
	case KindStruct:
		buildFields(nt, building)
	case KindPointer, KindSlice:
		nt.Elem = build(t.Elem(), building)
		if nt.Elem.Kind == KindInvalid {
			nt.Kind = KindInvalid
		}
	case KindSet:
		nt.Key = build(t.Key(), building)
	case KindMap:
		nt.Key = build(t.Key(), building)
		nt.Value = build(t.Elem(), building)
	}
	return nt
}

func classify(t reflect.Type) Kind {
	if t == nil {
		return KindInvalid
	}
	switch t {
	case nameType:
		return KindName
	case textType:
		return KindText
	}
	if implements(t, boxedType) {
		return KindVariant
	}
	if isEnum(t) {
		return KindEnum
	}
	if t.Kind() != reflect.Pointer && implements(t, textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalType) {
		return KindObjectPath
	}

	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Int:
		return KindInt
	case reflect.Uint8:
		return KindByte
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Uint:
		return KindUint
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.String:
		return KindString
	case reflect.Struct:
		return KindStruct
	case reflect.Pointer:
		return KindPointer
	case reflect.Slice:
		return KindSlice
	case reflect.Map:
		if e := t.Elem(); e.Kind() == reflect.Struct && e.NumField() == 0 {
			return KindSet
		}
		return KindMap
	}
	return KindInvalid
}

func implements(t, iface reflect.Type) bool {
	return t.Implements(iface) || (t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(iface))
}

func isEnum(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
	default:
		return false
	}
	return implements(t, enumType) || t.Implements(protoEnumType)
}

func buildFields(nt *Type, building map[reflect.Type]*Type) {
	t := nt.Go
	nt.byName = make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag := sf.Tag.Get(TagName); tag != "" {
			if tag == "-" {
				continue
			}
			name = tag
		}

		f := Field{
			Name:   name,
			GoName: sf.Name,
			Offset: sf.Offset,
			Index:  i,
			Dim:    1,
		}
		ft := sf.Type
		if ft.Kind() == reflect.Array {
			if ft.Len() == 0 {
				continue
			}
			f.Dim = ft.Len()
			f.Stride = ft.Elem().Size()
			ft = ft.Elem()
		}
		f.Type = build(ft, building)

		if _, dup := nt.byName[name]; dup {
			continue // first declaration wins
		}
		nt.byName[name] = len(nt.Fields)
		nt.Fields = append(nt.Fields, f)
	}
}

// EnumValue resolves an enumerator name of an enum type.
func (t *Type) EnumValue(name string) (int64, bool) {
	if t.Kind != KindEnum {
		return 0, false
	}
	zero := reflect.New(t.Go) // pointer method set covers both receivers
	if e, ok := zero.Interface().(Enum); ok {
		return e.EnumValue(name)
	}
	if e, ok := zero.Elem().Interface().(protoreflect.Enum); ok {
		v := e.Descriptor().Values().ByName(protoreflect.Name(name))
		if v == nil {
			return 0, false
		}
		return int64(v.Number()), true
	}
	return 0, false
}

// Name is an interned string.
type Name = unique.Handle[string]

// MakeName interns s.
func MakeName(s string) Name {
	return unique.Make(s)
}
