package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/protobind/schema"
	"github.com/wippyai/protobind/wire"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

func listMessages(w io.Writer, pool *schema.Pool) {
	for _, md := range pool.Messages() {
		describeMessage(w, md)
	}
}

func describeMessage(w io.Writer, md protoreflect.MessageDescriptor) {
	fmt.Fprintf(w, "%s\n", md.FullName())
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		fmt.Fprintf(w, "  %-4d %-20s %s\n", fd.Number(), fd.Name(), fieldType(fd))
	}
}

func fieldType(fd protoreflect.FieldDescriptor) string {
	switch {
	case fd.IsMap():
		return fmt.Sprintf("map<%s, %s>", kindName(fd.MapKey()), kindName(fd.MapValue()))
	case fd.IsList():
		return "repeated " + kindName(fd)
	case fd.HasOptionalKeyword():
		return "optional " + kindName(fd)
	}
	if od := fd.ContainingOneof(); od != nil {
		return kindName(fd) + " (oneof " + string(od.Name()) + ")"
	}
	return kindName(fd)
}

func kindName(fd protoreflect.FieldDescriptor) string {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(fd.Message().FullName())
	case protoreflect.EnumKind:
		return string(fd.Enum().FullName())
	}
	return fd.Kind().String()
}

// payloadJSON renders payload through the reference runtime.
func payloadJSON(md protoreflect.MessageDescriptor, payload []byte) (string, error) {
	msg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(payload, msg); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return string(out), nil
}

// dumpPayload prints the fields present in payload, one per line.
func dumpPayload(w io.Writer, md protoreflect.MessageDescriptor, payload []byte) error {
	a := wire.AcquireArena()
	defer a.Release()

	id, err := a.Unmarshal(payload, md)
	if err != nil {
		return err
	}
	return dumpMessage(w, a, id, "  ")
}

func dumpMessage(w io.Writer, a *wire.Arena, id wire.MessageID, indent string) error {
	fields := a.Descriptor(id).Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		r := wire.NewReader(a, id, fd)
		if !r.Has() {
			continue
		}

		switch {
		case r.IsMap():
			if err := dumpMap(w, a, r, indent); err != nil {
				return err
			}
		case r.IsArray():
			for j := 0; j < r.ArraySize(); j++ {
				el, err := r.Element(j)
				if err != nil {
					return err
				}
				label := fmt.Sprintf("%s[%d]", fd.Name(), j)
				if err := dumpValue(w, a, el, label, indent); err != nil {
					return err
				}
			}
		default:
			if err := dumpValue(w, a, r, string(fd.Name()), indent); err != nil {
				return err
			}
		}
	}
	if unknown := a.Unknown(id); len(unknown) > 0 {
		fmt.Fprintf(w, "%s<unknown fields: %d bytes>\n", indent, len(unknown))
	}
	return nil
}

func dumpMap(w io.Writer, a *wire.Arena, r wire.Reader, indent string) error {
	cur, err := r.Entries()
	if err != nil {
		return err
	}
	name := r.Descriptor().Name()
	for k, v, ok := cur.Next(); ok; k, v, ok = cur.Next() {
		label := fmt.Sprintf("%s[%s]", name, formatLeaf(k))
		if err := dumpValue(w, a, v, label, indent); err != nil {
			return err
		}
	}
	return nil
}

func dumpValue(w io.Writer, a *wire.Arena, r wire.Reader, label, indent string) error {
	if !r.IsMessage() {
		fmt.Fprintf(w, "%s%s: %s\n", indent, label, formatLeaf(r))
		return nil
	}
	sub, err := r.SubMessage()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s {\n", indent, label)
	if sub != 0 {
		if err := dumpMessage(w, a, sub, indent+"  "); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "%s}\n", indent)
	return nil
}

func formatLeaf(r wire.Reader) string {
	v, _ := r.Dispatch()
	switch {
	case r.IsEnum():
		n, _ := v.Int()
		if ev := r.Descriptor().Enum().Values().ByNumber(protoreflect.EnumNumber(n)); ev != nil {
			return string(ev.Name())
		}
		return strconv.FormatInt(n, 10)
	case r.IsString():
		return strconv.Quote(v.Str())
	case r.IsBytes():
		return "0x" + hex.EncodeToString(v.Bytes())
	case r.IsBool():
		return strconv.FormatBool(v.Bool())
	case r.IsFloat():
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case r.IsDouble():
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case r.IsUint32(), r.IsUint64():
		return strconv.FormatUint(v.Uint64(), 10)
	}
	n, _ := v.Int()
	return strconv.FormatInt(n, 10)
}

// dumpString is dumpPayload into a string, for the interactive view.
func dumpString(md protoreflect.MessageDescriptor, payload []byte) (string, error) {
	var b strings.Builder
	if err := dumpPayload(&b, md, payload); err != nil {
		return "", err
	}
	return b.String(), nil
}
