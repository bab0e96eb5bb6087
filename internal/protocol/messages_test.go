package protocol

import (
	"encoding/json"
	"testing"

	"github.com/grovego/server/internal/world"
)

func TestEncodeStampsHeader(t *testing.T) {
	data, err := Encode(&Move{X: 10, Y: 20, Direction: world.DirLeft, Moving: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal encoded frame: %v", err)
	}
	if raw["type"] != KindMove {
		t.Fatalf("type = %v, want %q", raw["type"], KindMove)
	}
	if ts, ok := raw["ts"].(float64); !ok || ts <= 0 {
		t.Fatalf("ts = %v, want a positive unix-ms stamp", raw["ts"])
	}
}

func TestEncodeKeepsExplicitTimestamp(t *testing.T) {
	m := &Attack{TargetID: "t", Damage: 5}
	m.Timestamp = 1234
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out Attack
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Timestamp != 1234 {
		t.Fatalf("timestamp rewritten to %d", out.Timestamp)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	in := &Attack{TargetID: "3,-7", Damage: 30}
	in.Sender = "p1"
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	m, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, ok := m.(*Attack)
	if !ok {
		t.Fatalf("decoded %T, want *Attack", m)
	}
	if out.TargetID != "3,-7" || out.Damage != 30 || out.Sender != "p1" {
		t.Fatalf("round trip lost fields: %+v", out)
	}
}

func TestDecodeAllKinds(t *testing.T) {
	msgs := []Message{
		&Join{Name: "ann"},
		&Move{X: 1, Y: 2, Direction: world.DirUp},
		&Pickup{ItemID: "i1"},
		&Consume{ItemType: world.ItemBerry},
		&PlantTree{PlantID: "pl1", X: 3, Y: 4, TreeType: world.TreeOak},
		&TransformResource{ResourceID: "r1", ResourceKind: ResourceStone, StoneType: world.StoneRock},
		&InventoryUpdate{Counts: map[world.ItemType]int{world.ItemWood: 2}},
		&RespawnRequest{},
		&Leave{},
		&HealthUpdate{Health: 80},
		&HungerUpdate{Hunger: 40},
		&Welcome{PlayerID: "p1"},
		&PlayerMoved{PlayerID: "p1", X: 5, Y: 6},
		&ResourceDestroyed{ResourceKind: ResourceTree, ResourceID: "t1"},
		&InventorySync{PlayerID: "p1", Counts: map[world.ItemType]int{}},
	}
	for _, in := range msgs {
		data, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%s): %v", in.Kind(), err)
		}
		out, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s): %v", in.Kind(), err)
		}
		if out.Kind() != in.Kind() {
			t.Fatalf("decoded kind %q, want %q", out.Kind(), in.Kind())
		}
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"teleport"}`)); err == nil {
		t.Fatal("unknown kind decoded without error")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Fatal("malformed payload decoded without error")
	}
	if _, err := Decode([]byte(`{"type":"move","x":"far"}`)); err == nil {
		t.Fatal("wrong field type decoded without error")
	}
}

func TestServerOnly(t *testing.T) {
	for _, kind := range []string{KindWelcome, KindWorldSnapshot, KindPlayerMoved, KindItemSpawned} {
		if !ServerOnly(kind) {
			t.Fatalf("%q not flagged server-only", kind)
		}
	}
	for _, kind := range []string{KindMove, KindAttack, KindHealthUpdate, KindLeave} {
		if ServerOnly(kind) {
			t.Fatalf("%q wrongly flagged server-only", kind)
		}
	}
}
