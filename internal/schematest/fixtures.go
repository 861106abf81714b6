package schematest

// Game is a proto3 file exercising every field shape:
//
//	package game;
//	enum Class { CLASS_UNKNOWN = 0; WARRIOR = 1; MAGE = 2; ROGUE = 3; }
//	message Vec3 { float x = 1; float y = 2; float z = 3; }
//	message Item { string name = 1; uint32 count = 2; int64 id = 3; }
//	message Player {
//	  bool alive = 1; int32 level = 2; uint32 gold = 3; int64 xp = 4;
//	  uint64 guid = 5; float speed = 6; double ratio = 7; string name = 8;
//	  bytes avatar = 9; Class class = 10; Vec3 pos = 11;
//	  repeated Item items = 12; repeated int32 scores = 13;
//	  map<string, int32> stats = 14; map<int32, Item> slots = 15;
//	  repeated string tags = 16;
//	  oneof payload { string note = 18; Vec3 target = 19; }
//	  optional int32 rank = 17;
//	  sint32 delta = 20; fixed64 stamp = 21; repeated Class classes = 22;
//	}
//	message Envelope { string kind = 1; Player body = 2; repeated Item loot = 3; }
func Game() *FileBuilder {
	return File("game.proto", "game").
		Enum("Class", 0, "CLASS_UNKNOWN", "WARRIOR", "MAGE", "ROGUE").
		Message(Msg("Vec3").
			Field("x", 1, Float).
			Field("y", 2, Float).
			Field("z", 3, Float)).
		Message(Msg("Item").
			Field("name", 1, String).
			Field("count", 2, Uint32).
			Field("id", 3, Int64)).
		Message(Msg("Player").
			Field("alive", 1, Bool).
			Field("level", 2, Int32).
			Field("gold", 3, Uint32).
			Field("xp", 4, Int64).
			Field("guid", 5, Uint64).
			Field("speed", 6, Float).
			Field("ratio", 7, Double).
			Field("name", 8, String).
			Field("avatar", 9, Bytes).
			Ref("class", 10, Enum, ".game.Class").
			Ref("pos", 11, Message, ".game.Vec3").
			RepeatedRef("items", 12, Message, ".game.Item").
			Repeated("scores", 13, Int32).
			Map("stats", 14, String, Int32, "").
			Map("slots", 15, Int32, Message, ".game.Item").
			Repeated("tags", 16, String).
			Oneof("payload", func(m *MessageBuilder) {
				m.Field("note", 18, String).
					Ref("target", 19, Message, ".game.Vec3")
			}).
			Optional("rank", 17, Int32).
			Field("delta", 20, Sint32).
			Field("stamp", 21, Fixed64).
			RepeatedRef("classes", 22, Enum, ".game.Class")).
		Message(Msg("Envelope").
			Field("kind", 1, String).
			Ref("body", 2, Message, ".game.Player").
			RepeatedRef("loot", 3, Message, ".game.Item"))
}

// Legacy is a proto2 file with declared defaults:
//
//	package legacy;
//	enum Mode { SLOW = 1; FAST = 2; }
//	message Config {
//	  optional int32 retries = 1 [default = 3];
//	  optional string host = 2 [default = "localhost"];
//	  optional bool verbose = 3 [default = true];
//	  optional Mode mode = 4 [default = FAST];
//	  optional float scale = 5 [default = 1.5];
//	  repeated int32 ports = 6;
//	  optional group Extra = 7 { optional string note = 1; }
//	}
func Legacy() *FileBuilder {
	return File("legacy.proto", "legacy").
		Proto2().
		Enum("Mode", 1, "SLOW", "FAST").
		Message(Msg("Config").
			Field("retries", 1, Int32).Default("3").
			Field("host", 2, String).Default("localhost").
			Field("verbose", 3, Bool).Default("true").
			Ref("mode", 4, Enum, ".legacy.Mode").Default("FAST").
			Field("scale", 5, Float).Default("1.5").
			Repeated("ports", 6, Int32).
			Ref("extra", 7, Group, ".legacy.Config.Extra").
			Nested(Msg("Extra").Field("note", 1, String)))
}

// Catalog depends on Game:
//
//	package shop;
//	import "game.proto";
//	message Listing { game.Item item = 1; int64 price = 2; }
func Catalog() *FileBuilder {
	return File("catalog.proto", "shop").
		Import("game.proto").
		Message(Msg("Listing").
			Ref("item", 1, Message, ".game.Item").
			Field("price", 2, Int64))
}
