package transcoder

import (
	"unsafe"

	"github.com/wippyai/protobind/native"
	"github.com/wippyai/protobind/wire"
)

type (
	writeFunc    func(s *state, w *wire.Writer, t *native.Type, ptr unsafe.Pointer) error
	readLeafFunc func(s *state, r wire.Reader, v wire.Value, t *native.Type, ptr unsafe.Pointer) error
	readNodeFunc func(s *state, r wire.Reader, t *native.Type, ptr unsafe.Pointer) error
)

// visitor converts one native kind. A nil function rejects the
// combination as a kind mismatch.
type visitor struct {
	write    writeFunc
	readLeaf readLeafFunc
	readNode readNodeFunc
}

var visitors [native.KindCount]visitor

func init() {
	visitors[native.KindBool] = visitor{write: writeBool, readLeaf: readBool}
	visitors[native.KindEnum] = visitor{write: writeEnum, readLeaf: readEnum}
	for _, k := range []native.Kind{
		native.KindInt8, native.KindInt16, native.KindInt32, native.KindInt64, native.KindInt,
	} {
		visitors[k] = visitor{write: writeInt, readLeaf: readInt}
	}
	for _, k := range []native.Kind{
		native.KindByte, native.KindUint16, native.KindUint32, native.KindUint64, native.KindUint,
	} {
		visitors[k] = visitor{write: writeUint, readLeaf: readUint}
	}
	visitors[native.KindFloat32] = visitor{write: writeFloat, readLeaf: readFloat}
	visitors[native.KindFloat64] = visitor{write: writeFloat, readLeaf: readFloat}

	visitors[native.KindString] = visitor{write: writeString, readLeaf: readString}
	visitors[native.KindName] = visitor{write: writeName, readLeaf: readName}
	visitors[native.KindText] = visitor{write: writeText, readLeaf: readText}
	visitors[native.KindObjectPath] = visitor{write: writeObjectPath, readLeaf: readObjectPath}

	visitors[native.KindStruct] = visitor{write: writeStruct, readNode: readStruct}
	visitors[native.KindVariant] = visitor{write: writeVariant, readNode: readVariant}
	visitors[native.KindPointer] = visitor{write: writePointer, readLeaf: readPointerLeaf, readNode: readPointer}

	visitors[native.KindSlice] = visitor{write: writeSlice, readLeaf: readSliceLeaf, readNode: readSlice}
	visitors[native.KindSet] = visitor{write: writeSet, readLeaf: readSetLeaf, readNode: readSet}
	visitors[native.KindMap] = visitor{write: writeMap, readNode: readMap}
}
