package native

import (
	"bytes"
	"cmp"
	"encoding"
	"reflect"
	"slices"
	"unsafe"
)

// At returns the addressable value of type t stored at ptr.
func (t *Type) At(ptr unsafe.Pointer) reflect.Value {
	return reflect.NewAt(t.Go, ptr).Elem()
}

// IsZero reports whether the value at ptr is the zero value of t.
func (t *Type) IsZero(ptr unsafe.Pointer) bool {
	return t.At(ptr).IsZero()
}

// Len returns the element count of a slice, set or map at ptr.
func (t *Type) Len(ptr unsafe.Pointer) int {
	return t.At(ptr).Len()
}

// Resize replaces the slice at ptr with a fresh zeroed slice of length n.
// A zero n stores nil.
func (t *Type) Resize(ptr unsafe.Pointer, n int) {
	v := t.At(ptr)
	if n == 0 {
		v.SetZero()
		return
	}
	v.Set(reflect.MakeSlice(t.Go, n, n))
}

// Index returns the address of slice element i.
func (t *Type) Index(ptr unsafe.Pointer, i int) unsafe.Pointer {
	return t.At(ptr).Index(i).Addr().UnsafePointer()
}

// Bytes returns the slice at ptr as raw bytes when its elements are one
// byte wide.
func (t *Type) Bytes(ptr unsafe.Pointer) []byte {
	v := t.At(ptr)
	if v.Len() == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.UnsafePointer()), v.Len())
}

// Deref returns the target of the pointer at ptr, nil when unset.
func (t *Type) Deref(ptr unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(ptr)
}

// Alloc returns the address of a fresh zero value of the pointer's
// element type.
func (t *Type) Alloc() unsafe.Pointer {
	return reflect.New(t.Elem.Go).UnsafePointer()
}

// SetPointer points the pointer at ptr to target; a nil target clears it.
func (t *Type) SetPointer(ptr, target unsafe.Pointer) {
	*(*unsafe.Pointer)(ptr) = target
}

// Keys returns addressable copies of the keys of the set or map at ptr,
// sorted so the same contents always yield the same order.
func (t *Type) Keys(ptr unsafe.Pointer) []reflect.Value {
	m := t.At(ptr)
	keys := make([]reflect.Value, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		k := reflect.New(t.Key.Go).Elem()
		k.Set(iter.Key())
		keys = append(keys, k)
	}
	sortKeys(t.Key, keys)
	return keys
}

// MapIndex returns an addressable copy of the value stored under key.
func (t *Type) MapIndex(ptr unsafe.Pointer, key reflect.Value) reflect.Value {
	v := reflect.New(t.Value.Go).Elem()
	v.Set(t.At(ptr).MapIndex(key))
	return v
}

func sortKeys(kt *Type, keys []reflect.Value) {
	slices.SortFunc(keys, func(a, b reflect.Value) int { return compareKeys(kt, a, b) })
}

// compareKeys orders two keys of type kt. Name, Text and text-marshaled
// keys compare by their wire text; everything else by its Go value.
func compareKeys(kt *Type, a, b reflect.Value) int {
	if kt.Kind == KindObjectPath {
		if c := bytes.Compare(markedText(a), markedText(b)); c != 0 {
			return c
		}
	}
	return compareValues(a, b)
}

func markedText(v reflect.Value) []byte {
	m, ok := v.Interface().(encoding.TextMarshaler)
	if !ok {
		return nil
	}
	b, _ := m.MarshalText()
	return b
}

// compareValues is a total order over comparable Go values.
func compareValues(a, b reflect.Value) int {
	if a.CanInterface() {
		switch a.Type() {
		case nameType:
			return cmp.Compare(NameString(a.Interface().(Name)), NameString(b.Interface().(Name)))
		case textType:
			ta, tb := a.Interface().(Text), b.Interface().(Text)
			if c := cmp.Compare(ta.Value, tb.Value); c != 0 {
				return c
			}
			return cmp.Compare(ta.Lang.String(), tb.Lang.String())
		}
	}
	switch a.Kind() {
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case a.Bool():
			return 1
		}
		return -1
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		if c := cmp.Compare(real(a.Complex()), real(b.Complex())); c != 0 {
			return c
		}
		return cmp.Compare(imag(a.Complex()), imag(b.Complex()))
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if c := compareValues(a.Index(i), b.Index(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if c := compareValues(a.Field(i), b.Field(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Interface:
		switch {
		case a.IsNil() || b.IsNil():
			return cmp.Compare(boolRank(!a.IsNil()), boolRank(!b.IsNil()))
		case a.Elem().Type() != b.Elem().Type():
			return cmp.Compare(a.Elem().Type().String(), b.Elem().Type().String())
		}
		return compareValues(a.Elem(), b.Elem())
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return cmp.Compare(a.Pointer(), b.Pointer())
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Builder accumulates set or map entries and stores them in one step.
type Builder struct {
	t *Type
	m reflect.Value
}

// NewBuilder starts a set or map of type t sized for n entries.
func (t *Type) NewBuilder(n int) *Builder {
	return &Builder{t: t, m: reflect.MakeMapWithSize(t.Go, n)}
}

// NewKey returns a pointer to a fresh zero key.
func (b *Builder) NewKey() reflect.Value {
	return reflect.New(b.t.Key.Go)
}

// NewValue returns a pointer to a fresh zero map value.
func (b *Builder) NewValue() reflect.Value {
	return reflect.New(b.t.Value.Go)
}

// Insert adds an entry; key and val are pointers from NewKey and NewValue.
// For sets val is ignored.
func (b *Builder) Insert(key, val reflect.Value) {
	if b.t.Kind == KindSet {
		b.m.SetMapIndex(key.Elem(), reflect.Zero(b.t.Go.Elem()))
		return
	}
	b.m.SetMapIndex(key.Elem(), val.Elem())
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return b.m.Len()
}

// Store assigns the built map to the value at ptr. An empty build stores nil.
func (b *Builder) Store(ptr unsafe.Pointer) {
	v := b.t.At(ptr)
	if b.m.Len() == 0 {
		v.SetZero()
		return
	}
	v.Set(b.m)
}
