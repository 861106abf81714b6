package wire

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/protobind/errors"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// buildPlayer fills a Player with one value in every field shape.
func buildPlayer(t testing.TB, a *Arena, md protoreflect.MessageDescriptor) MessageID {
	t.Helper()
	id := a.NewMessage(md)
	w := func(name protoreflect.Name) *Writer { return NewWriter(a, id, field(t, md, name)) }
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	must(w("alive").SetBool(true))
	must(w("level").SetInt32(-5))
	must(w("gold").SetUint32(700))
	must(w("xp").SetInt64(1 << 40))
	must(w("guid").SetUint64(1<<63 + 1))
	must(w("speed").SetFloat(2.5))
	must(w("ratio").SetDouble(0.125))
	must(w("name").SetString("aria"))
	must(w("avatar").SetBytes([]byte{0, 1, 2}))
	must(w("class").SetEnum(2))
	must(w("delta").SetInt32(-3))
	must(w("stamp").SetUint64(99))
	must(w("rank").SetInt32(0))
	must(w("note").SetString("hello"))

	pos, err := w("pos").NewMessage()
	must(err)
	vec := md.Fields().ByName("pos").Message()
	must(NewWriter(a, pos, vec.Fields().ByName("x")).SetFloat(1))
	must(NewWriter(a, pos, vec.Fields().ByName("z")).SetFloat(-3))

	itemMD := md.Fields().ByName("items").Message()
	items := w("items")
	for i, name := range []string{"sword", "shield"} {
		el, err := items.Element(i)
		must(err)
		item, err := el.NewMessage()
		must(err)
		must(NewWriter(a, item, itemMD.Fields().ByName("name")).SetString(name))
		must(NewWriter(a, item, itemMD.Fields().ByName("count")).SetUint32(uint32(i + 1)))
	}

	scores := w("scores")
	for i, v := range []int32{10, -20, 30} {
		el, err := scores.Element(i)
		must(err)
		must(el.SetInt32(v))
	}

	tags := w("tags")
	for i, v := range []string{"a", "b"} {
		el, err := tags.Element(i)
		must(err)
		must(el.SetString(v))
	}

	classes := w("classes")
	for i, v := range []protoreflect.EnumNumber{1, 3} {
		el, err := classes.Element(i)
		must(err)
		must(el.SetEnum(v))
	}

	stats := w("stats")
	for _, kv := range []struct {
		k string
		v int32
	}{{"hp", 10}, {"mp", 5}} {
		k, v := stats.MapKey(), stats.MapValue()
		must(k.SetString(kv.k))
		must(v.SetInt32(kv.v))
		must(stats.InsertMapEntry(k.Value(), v.Value()))
	}

	slots := w("slots")
	k, v := slots.MapKey(), slots.MapValue()
	must(k.SetInt32(4))
	item, err := v.NewMessage()
	must(err)
	must(NewWriter(a, item, itemMD.Fields().ByName("name")).SetString("ring"))
	must(slots.InsertMapEntry(k.Value(), v.Value()))

	return id
}

func TestReader_Predicates(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)
	r := func(name protoreflect.Name) Reader { return NewReader(a, id, field(t, md, name)) }

	tests := []struct {
		field protoreflect.Name
		check func(Reader) bool
		want  bool
	}{
		{"alive", Reader.IsBool, true},
		{"class", Reader.IsEnum, true},
		{"class", Reader.IsInt32, false},
		{"class", Reader.IsNumber, false},
		{"level", Reader.IsInt32, true},
		{"delta", Reader.IsInt32, true},
		{"gold", Reader.IsUint32, true},
		{"xp", Reader.IsInt64, true},
		{"stamp", Reader.IsUint64, true},
		{"speed", Reader.IsFloat, true},
		{"ratio", Reader.IsDouble, true},
		{"ratio", Reader.IsNumber, true},
		{"name", Reader.IsString, true},
		{"avatar", Reader.IsBytes, true},
		{"avatar", Reader.IsString, false},
		{"pos", Reader.IsMessage, true},
		{"items", Reader.IsRepeated, true},
		{"items", Reader.IsArray, true},
		{"stats", Reader.IsMap, true},
		{"stats", Reader.IsArray, false},
		{"stats", Reader.IsMessage, false},
		{"level", Reader.IsArray, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			if got := tt.check(r(tt.field)); got != tt.want {
				t.Errorf("predicate on %s = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestReader_Getters(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := buildPlayer(t, a, md)
	r := func(name protoreflect.Name) Reader { return NewReader(a, id, field(t, md, name)) }

	if v, err := r("alive").Bool(); err != nil || !v {
		t.Errorf("alive = %v, %v", v, err)
	}
	if v, err := r("level").Int32(); err != nil || v != -5 {
		t.Errorf("level = %v, %v", v, err)
	}
	if v, err := r("gold").Uint32(); err != nil || v != 700 {
		t.Errorf("gold = %v, %v", v, err)
	}
	if v, err := r("xp").Int64(); err != nil || v != 1<<40 {
		t.Errorf("xp = %v, %v", v, err)
	}
	if v, err := r("guid").Uint64(); err != nil || v != 1<<63+1 {
		t.Errorf("guid = %v, %v", v, err)
	}
	if v, err := r("speed").Float(); err != nil || v != 2.5 {
		t.Errorf("speed = %v, %v", v, err)
	}
	if v, err := r("ratio").Double(); err != nil || v != 0.125 {
		t.Errorf("ratio = %v, %v", v, err)
	}
	if v, err := r("name").StringView(); err != nil || string(v) != "aria" {
		t.Errorf("name = %q, %v", v, err)
	}
	if v, err := r("avatar").Bytes(); err != nil || len(v) != 3 || v[2] != 2 {
		t.Errorf("avatar = %v, %v", v, err)
	}
	if v, err := r("class").Enum(); err != nil || v != 2 {
		t.Errorf("class = %v, %v", v, err)
	}
	if v, err := r("class").Int32(); err != nil || v != 2 {
		t.Errorf("class as int32 = %v, %v", v, err)
	}
}

func TestReader_KindMismatch(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := buildPlayer(t, a, md)

	tests := []struct {
		name string
		read func() error
	}{
		{"bool as int32", func() error { _, err := NewReader(a, id, field(t, md, "alive")).Int32(); return err }},
		{"string as uint64", func() error { _, err := NewReader(a, id, field(t, md, "name")).Uint64(); return err }},
		{"int32 as enum", func() error { _, err := NewReader(a, id, field(t, md, "level")).Enum(); return err }},
		{"array as scalar", func() error { _, err := NewReader(a, id, field(t, md, "scores")).Int32(); return err }},
		{"map as message", func() error { _, err := NewReader(a, id, field(t, md, "stats")).SubMessage(); return err }},
		{"scalar as array", func() error { _, err := NewReader(a, id, field(t, md, "level")).Element(0); return err }},
		{"scalar as map", func() error { _, err := NewReader(a, id, field(t, md, "level")).Entries(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if !stderrors.Is(err, errors.FieldKindMismatch) {
				t.Errorf("got %v, want field kind mismatch", err)
			}
		})
	}
}

func TestReader_Defaults(t *testing.T) {
	md := msgDesc(t, legacyFile, "Config")
	a := NewArena()
	id := a.NewMessage(md)
	r := func(name protoreflect.Name) Reader { return NewReader(a, id, field(t, md, name)) }

	if r("retries").Has() {
		t.Error("unset field reports Has")
	}
	if v, err := r("retries").Int32(); err != nil || v != 3 {
		t.Errorf("retries = %v, %v; want 3", v, err)
	}
	if v, err := r("host").StringView(); err != nil || string(v) != "localhost" {
		t.Errorf("host = %q, %v; want localhost", v, err)
	}
	if v, err := r("verbose").Bool(); err != nil || !v {
		t.Errorf("verbose = %v, %v; want true", v, err)
	}
	if v, err := r("mode").Enum(); err != nil || v != 2 {
		t.Errorf("mode = %v, %v; want 2", v, err)
	}
	if v, err := r("scale").Float(); err != nil || v != 1.5 {
		t.Errorf("scale = %v, %v; want 1.5", v, err)
	}

	def := NewDefaultReader(a, field(t, md, "retries"))
	if v, err := def.Int32(); err != nil || v != 3 {
		t.Errorf("default reader = %v, %v; want 3", v, err)
	}

	absent := NewReader(a, 0, field(t, md, "host"))
	if v, err := absent.StringView(); err != nil || string(v) != "localhost" {
		t.Errorf("absent message read = %q, %v", v, err)
	}
}

func TestReader_Arrays(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := buildPlayer(t, a, md)

	scores := NewReader(a, id, field(t, md, "scores"))
	if n := scores.ArraySize(); n != 3 {
		t.Fatalf("ArraySize = %d, want 3", n)
	}
	want := []int32{10, -20, 30}
	for i := range want {
		el, err := scores.Element(i)
		if err != nil {
			t.Fatal(err)
		}
		if el.IsArray() {
			t.Error("indexed reader reports IsArray")
		}
		v, err := el.Int32()
		if err != nil || v != want[i] {
			t.Errorf("scores[%d] = %v, %v; want %d", i, v, err, want[i])
		}
	}

	_, err := scores.Element(3)
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindOutOfBounds}) {
		t.Errorf("Element(3) = %v, want out of bounds", err)
	}

	items := NewReader(a, id, field(t, md, "items"))
	el, err := items.Element(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, container := el.Dispatch(); !container {
		t.Error("message element should dispatch as container")
	}
	item, err := el.SubMessage()
	if err != nil || item == 0 {
		t.Fatalf("SubMessage = %v, %v", item, err)
	}
	name, _ := NewReader(a, item, el.MessageDescriptor().Fields().ByName("name")).StringView()
	if string(name) != "shield" {
		t.Errorf("items[1].name = %q, want shield", name)
	}
}

func TestReader_Entries(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := buildPlayer(t, a, md)

	cur, err := NewReader(a, id, field(t, md, "stats")).Entries()
	if err != nil {
		t.Fatal(err)
	}
	if cur.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cur.Len())
	}
	got := map[string]int32{}
	for k, v, ok := cur.Next(); ok; k, v, ok = cur.Next() {
		ks, err := k.StringView()
		if err != nil {
			t.Fatal(err)
		}
		vi, err := v.Int32()
		if err != nil {
			t.Fatal(err)
		}
		got[string(ks)] = vi
	}
	if got["hp"] != 10 || got["mp"] != 5 || len(got) != 2 {
		t.Errorf("entries = %v", got)
	}

	empty, err := NewReader(a, a.NewMessage(md), field(t, md, "stats")).Entries()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := empty.Next(); ok {
		t.Error("absent map yields entries")
	}
}

func TestReader_Dispatch(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := buildPlayer(t, a, md)

	tests := []struct {
		field     protoreflect.Name
		container bool
		kind      Kind
	}{
		{"level", false, KindInt32},
		{"name", false, KindString},
		{"pos", true, KindMessage},
		{"scores", true, KindArray},
		{"stats", true, KindMap},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			v, container := NewReader(a, id, field(t, md, tt.field)).Dispatch()
			if container != tt.container || v.Kind() != tt.kind {
				t.Errorf("Dispatch = %v, %v; want %v, %v", v.Kind(), container, tt.kind, tt.container)
			}
		})
	}

	// unset leaf dispatches its default
	v, container := NewReader(a, a.NewMessage(md), field(t, md, "level")).Dispatch()
	if container || v.Kind() != KindInt32 || v.Int32() != 0 {
		t.Errorf("unset leaf = %v/%d, %v", v.Kind(), v.Int32(), container)
	}
}

func TestWriter_RejectsMismatch(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)

	level := NewWriter(a, id, field(t, md, "level"))
	if err := level.SetInt32(9); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		write func() error
	}{
		{"string into int32", func() error { return level.SetString("x") }},
		{"uint32 into int32", func() error { return level.SetUint32(1) }},
		{"double into int32", func() error { return level.SetDouble(1) }},
		{"enum into int32", func() error { return level.SetEnum(1) }},
		{"message into int32", func() error { _, err := level.NewMessage(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.write(); !stderrors.Is(err, errors.FieldKindMismatch) {
				t.Errorf("got %v, want field kind mismatch", err)
			}
			if v, _ := level.Int32(); v != 9 {
				t.Errorf("level changed to %d after rejected write", v)
			}
		})
	}

	if err := NewWriter(a, id, field(t, md, "scores")).SetInt32(1); err == nil {
		t.Error("scalar write into unindexed array should fail")
	}
	if _, err := NewWriter(a, id, field(t, md, "level")).Element(0); err == nil {
		t.Error("Element on scalar field should fail")
	}
}

func TestWriter_EnumAcceptsInt32(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)
	w := NewWriter(a, id, field(t, md, "class"))

	if err := w.SetInt32(3); err != nil {
		t.Fatal(err)
	}
	if v, err := w.Enum(); err != nil || v != 3 {
		t.Errorf("class = %v, %v; want 3", v, err)
	}
}

func TestWriter_SetMessageType(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)

	item := a.NewMessage(msgDesc(t, gameFile, "Item"))
	if err := NewWriter(a, id, field(t, md, "pos")).SetMessage(item); err == nil {
		t.Error("storing an Item into a Vec3 field should fail")
	}
	vec := a.NewMessage(msgDesc(t, gameFile, "Vec3"))
	if err := NewWriter(a, id, field(t, md, "pos")).SetMessage(vec); err != nil {
		t.Errorf("SetMessage: %v", err)
	}
}

func TestWriter_OneofClearsSiblings(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)

	note := NewWriter(a, id, field(t, md, "note"))
	target := NewWriter(a, id, field(t, md, "target"))

	if err := note.SetString("hi"); err != nil {
		t.Fatal(err)
	}
	if _, err := target.NewMessage(); err != nil {
		t.Fatal(err)
	}
	if note.Has() {
		t.Error("setting target left note set")
	}
	if err := note.SetString("again"); err != nil {
		t.Fatal(err)
	}
	if target.Has() {
		t.Error("setting note left target set")
	}
}

func TestWriter_ElementGrows(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)
	w := NewWriter(a, id, field(t, md, "scores"))

	el, err := w.Element(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := el.SetInt32(7); err != nil {
		t.Fatal(err)
	}
	if n := w.ArraySize(); n != 5 {
		t.Fatalf("ArraySize = %d, want 5", n)
	}
	first, _ := w.Reader.Element(0)
	if v, err := first.Int32(); err != nil || v != 0 {
		t.Errorf("unset element = %d, %v; want 0", v, err)
	}

	if err := w.Resize(2); err != nil {
		t.Fatal(err)
	}
	if n := w.ArraySize(); n != 2 {
		t.Errorf("after Resize(2) ArraySize = %d", n)
	}
}

func TestWriter_InsertMapEntry(t *testing.T) {
	md := msgDesc(t, gameFile, "Player")
	a := NewArena()
	id := a.NewMessage(md)
	stats := NewWriter(a, id, field(t, md, "stats"))

	t.Run("detached writers store unchecked", func(t *testing.T) {
		k := stats.MapKey()
		if err := k.SetInt64(1); err != nil {
			t.Errorf("detached SetInt64 = %v, want nil", err)
		}
		if err := stats.InsertMapEntry(k.Value(), Int32Value(1)); !stderrors.Is(err, errors.FieldKindMismatch) {
			t.Errorf("insert with int64 key = %v, want mismatch", err)
		}
	})

	t.Run("value kind checked", func(t *testing.T) {
		if err := stats.InsertMapEntry(StringValue("hp"), StringValue("x")); !stderrors.Is(err, errors.FieldKindMismatch) {
			t.Errorf("insert with string value = %v, want mismatch", err)
		}
	})

	t.Run("repeated key replaces", func(t *testing.T) {
		for _, v := range []int32{1, 2} {
			if err := stats.InsertMapEntry(StringValue("hp"), Int32Value(v)); err != nil {
				t.Fatal(err)
			}
		}
		if n := stats.MapSize(); n != 1 {
			t.Fatalf("MapSize = %d, want 1", n)
		}
		m, _ := stats.Map()
		if v, ok := a.MapLookup(m, StringValue("hp")); !ok || v.Int32() != 2 {
			t.Errorf("hp = %v, %v; want 2", v.Int32(), ok)
		}
	})

	t.Run("message value type checked", func(t *testing.T) {
		slots := NewWriter(a, id, field(t, md, "slots"))
		vec := a.NewMessage(msgDesc(t, gameFile, "Vec3"))
		if err := slots.InsertMapEntry(Int32Value(1), MessageValue(vec)); err == nil {
			t.Error("Vec3 value accepted for map<int32, Item>")
		}
	})
}
