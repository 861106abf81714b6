// Package schema holds registered protobuf file descriptors and resolves Go
// types to the messages they encode as.
//
// A Registry owns independent Pools keyed by a small PoolID:
//
//	reg := schema.NewRegistryWithDefaults()
//	pool := reg.Pool(schema.DefaultPool)
//	n, err := pool.RegisterDescriptorSet(setBytes)
//
// Descriptor sets are registered in dependency order, found by a
// depth-first walk over each file's imports. Imports of the well-known
// types (google/protobuf/*.proto) resolve against the copies linked into
// the binary.
//
// Go types resolve to messages by, in order: an explicit Bind, a
// ProtoMessageName method, the type name as a top-level short name, and
// the Go package name joined with the type name:
//
//	type Player struct{ ... }          // matches game.Player or Player
//	func (Hero) ProtoMessageName() string { return "game.Player" }
//
// Registration is not synchronized. Register every schema before encode
// or decode traffic starts; lookups are then safe for concurrent use.
package schema
