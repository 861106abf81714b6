package transcoder

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/protobind/errors"
	"github.com/wippyai/protobind/internal/schematest"
	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/schema"
	"google.golang.org/protobuf/reflect/protoreflect"
)

type Class int32

const (
	ClassUnknown Class = iota
	Warrior
	Mage
	Rogue
)

var classNames = map[string]int64{"WARRIOR": 1, "MAGE": 2, "ROGUE": 3}

func (Class) EnumValue(name string) (int64, bool) {
	v, ok := classNames[name]
	return v, ok
}

type Vec3 struct {
	X float32 `protobind:"x"`
	Y float32 `protobind:"y"`
	Z float32 `protobind:"z"`
}

type Item struct {
	Name  string `protobind:"name"`
	Count uint32 `protobind:"count"`
	ID    int64  `protobind:"id"`
}

type Player struct {
	Alive   bool                `protobind:"alive"`
	Level   int32               `protobind:"level"`
	Gold    uint32              `protobind:"gold"`
	XP      int64               `protobind:"xp"`
	GUID    uint64              `protobind:"guid"`
	Speed   float32             `protobind:"speed"`
	Ratio   float64             `protobind:"ratio"`
	Name    string              `protobind:"name"`
	Avatar  []byte              `protobind:"avatar"`
	Class   Class               `protobind:"class"`
	Pos     Vec3                `protobind:"pos"`
	Items   []Item              `protobind:"items"`
	Scores  []int32             `protobind:"scores"`
	Stats   map[string]int32    `protobind:"stats"`
	Slots   map[int32]*Item     `protobind:"slots"`
	Tags    map[string]struct{} `protobind:"tags"`
	Note    string              `protobind:"note"`
	Target  *Vec3               `protobind:"target"`
	Rank    *int32              `protobind:"rank"`
	Delta   int32               `protobind:"delta"`
	Stamp   uint64              `protobind:"stamp"`
	Classes []Class             `protobind:"classes"`
}

type Envelope struct {
	Kind string  `protobind:"kind"`
	Body *Player `protobind:"body"`
	Loot []Item  `protobind:"loot"`
}

type Config struct {
	Retries int32   `protobind:"retries"`
	Host    string  `protobind:"host"`
	Verbose bool    `protobind:"verbose"`
	Mode    int32   `protobind:"mode"`
	Scale   float32 `protobind:"scale"`
	Ports   []int32 `protobind:"ports"`
	Extra   *Extra  `protobind:"extra"`
}

type Extra struct {
	Note string `protobind:"note"`
}

type Pair struct {
	A int32  `protobind:"a"`
	B string `protobind:"b"`
}

type Numbers struct {
	Xs []int32 `protobind:"xs"`
}

type Dict struct {
	M map[string]int32 `protobind:"m"`
}

type Inner struct {
	A int32  `protobind:"a"`
	B string `protobind:"b"`
	C bool   `protobind:"c"`
}

type Outer struct {
	Inner Inner `protobind:"inner"`
	N     int32 `protobind:"n"`
}

type Node struct {
	Next *Node `protobind:"next"`
	V    int32 `protobind:"v"`
}

type Labels struct {
	Names map[native.Name]struct{}       `protobind:"names"`
	Flags map[bool]struct{}              `protobind:"flags"`
	Paths map[native.ObjectPath]struct{} `protobind:"paths"`
}

// Orphan has no message.
type Orphan struct {
	A int32
}

// scenarios is a small proto3 file:
//
//	package scen;
//	message Pair { int32 a = 1; string b = 2; }
//	message Numbers { repeated int32 xs = 1; }
//	message Dict { map<string, int32> m = 1; }
//	message Inner { int32 a = 1; string b = 2; bool c = 3; }
//	message Outer { Inner inner = 1; int32 n = 2; }
//	message Node { Node next = 1; int32 v = 2; }
//	message Labels { repeated string names = 1; repeated bool flags = 2; repeated string paths = 3; }
func scenarios() *schematest.FileBuilder {
	return schematest.File("scen.proto", "scen").
		Message(schematest.Msg("Pair").
			Field("a", 1, schematest.Int32).
			Field("b", 2, schematest.String)).
		Message(schematest.Msg("Numbers").
			Repeated("xs", 1, schematest.Int32)).
		Message(schematest.Msg("Dict").
			Map("m", 1, schematest.String, schematest.Int32, "")).
		Message(schematest.Msg("Inner").
			Field("a", 1, schematest.Int32).
			Field("b", 2, schematest.String).
			Field("c", 3, schematest.Bool)).
		Message(schematest.Msg("Outer").
			Ref("inner", 1, schematest.Message, ".scen.Inner").
			Field("n", 2, schematest.Int32)).
		Message(schematest.Msg("Node").
			Ref("next", 1, schematest.Message, ".scen.Node").
			Field("v", 2, schematest.Int32)).
		Message(schematest.Msg("Labels").
			Repeated("names", 1, schematest.String).
			Repeated("flags", 2, schematest.Bool).
			Repeated("paths", 3, schematest.String))
}

type fixture struct {
	pool     *schema.Pool
	compiler *Compiler
	enc      *Encoder
	dec      *Decoder

	mu    sync.Mutex
	diags []error
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, func(*Config) {})
}

func newFixtureWith(t *testing.T, mod func(*Config)) *fixture {
	t.Helper()
	p := schema.NewPool()
	set := schematest.Set(schematest.Game(), schematest.Legacy(), scenarios())
	if n, err := p.RegisterDescriptorSet(set); err != nil || n != 3 {
		t.Fatalf("RegisterDescriptorSet = %d, %v", n, err)
	}

	f := &fixture{pool: p, compiler: NewCompiler()}
	cfg := DefaultConfig(p)
	cfg.Diagnostics = f.record
	mod(&cfg)
	f.enc = NewEncoderWithCompiler(cfg, f.compiler)
	f.dec = NewDecoderWithCompiler(cfg, f.compiler)
	return f
}

func (f *fixture) record(err error) {
	f.mu.Lock()
	f.diags = append(f.diags, err)
	f.mu.Unlock()
}

// reported returns the dotted paths of recorded errors of the given kind.
func (f *fixture) reported(kind errors.Kind) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, err := range f.diags {
		var e *errors.Error
		if errors.As(err, &e) && e.Kind == kind {
			out = append(out, strings.Join(e.Path, "."))
		}
	}
	return out
}

func (f *fixture) reset() {
	f.mu.Lock()
	f.diags = nil
	f.mu.Unlock()
}

func (f *fixture) bind(t *testing.T, v any, name protoreflect.FullName) {
	t.Helper()
	if err := f.pool.Bind(reflect.TypeOf(v), name); err != nil {
		t.Fatalf("Bind(%T, %s): %v", v, name, err)
	}
}

func (f *fixture) message(t *testing.T, name string) protoreflect.MessageDescriptor {
	t.Helper()
	md, ok := f.pool.FindMessage(name)
	if !ok {
		t.Fatalf("message %s not registered", name)
	}
	return md
}

func nativeOf[T any]() *native.Type {
	return native.TypeOf(reflect.TypeFor[T]())
}

func errorKind(err error) errors.Kind {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func samplePlayer() Player {
	rank := int32(4)
	return Player{
		Alive:   true,
		Level:   12,
		Gold:    300,
		XP:      -5,
		GUID:    1 << 40,
		Speed:   1.5,
		Ratio:   0.25,
		Name:    "hero",
		Avatar:  []byte{0, 1, 2, 255},
		Class:   Mage,
		Pos:     Vec3{X: 1, Y: 2, Z: 3},
		Items:   []Item{{Name: "sword", Count: 1, ID: 7}, {Name: "potion", Count: 3}},
		Scores:  []int32{10, -20, 30},
		Stats:   map[string]int32{"str": 5, "dex": 7},
		Slots:   map[int32]*Item{1: {Name: "shield", Count: 1}},
		Tags:    map[string]struct{}{"elite": {}, "boss": {}},
		Target:  &Vec3{X: 9},
		Rank:    &rank,
		Delta:   -3,
		Stamp:   99,
		Classes: []Class{Warrior, Rogue},
	}
}
