package protocol_test

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Scrimzay/seagulltown/internal/protocol"
	"github.com/Scrimzay/seagulltown/internal/types"
	"github.com/Scrimzay/seagulltown/internal/world"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// validateJSON checks an encoded frame, not the Go value, so the json tags
// are what gets tested.
func validateJSON(t *testing.T, s *jsonschema.Schema, data []byte) {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate %s: %v", data, err)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestSchemas_ServerFrames(t *testing.T) {
	welcomeSchema := compileSchema(t, "welcome.schema.json")
	stateSchema := compileSchema(t, "state.schema.json")
	eventSchema := compileSchema(t, "event.schema.json")

	p := world.DefaultGenParams()
	layout := world.Generate(p, rand.New(rand.NewSource(1337)))
	validateJSON(t, welcomeSchema, mustMarshal(t, protocol.Welcome{ID: "01HXPLAYER", World: layout}))

	store := world.NewStore(layout, p.WalkLimit())
	if _, err := store.AddPlayer("a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.AddPlayer("b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	hat := types.Hat{Width: 0.6, Height: 0.2, Depth: 0.6, Color: 0xff0000}
	store.MovePlayer("a", types.Vec3{X: 1, Y: 6, Z: 2}, 0.3, &hat)
	store.Customize("a", types.Customization{"bodyColor": "white"})
	store.DropHat("a", "h1", world.GroundHat{Vec3: types.Vec3{X: 1, Y: 0.1, Z: 2}, Hat: hat})
	store.PoopHit("npc_3", "b")
	validateJSON(t, stateSchema, mustMarshal(t, store.Snapshot()))

	events := []any{
		protocol.JoinEvent{Join: "a"},
		protocol.ChatEvent{Chat: protocol.ChatLine("a", "hello")},
		protocol.PoopEvent{Poop: json.RawMessage(`{"id":"p1","x":1}`)},
		protocol.DiarrheaEvent{Diarrhea: json.RawMessage(`[{"id":"d1"}]`)},
	}
	for _, ev := range events {
		validateJSON(t, eventSchema, mustMarshal(t, ev))
	}
}

func TestSchemas_ClientSamplesDecode(t *testing.T) {
	clientSchema := compileSchema(t, "client.schema.json")

	samples := []string{
		`{"position":{"x":1,"y":5,"z":2},"yaw":0.5}`,
		`{"position":{"x":1,"y":5,"z":2},"yaw":0.5,"hat":{"width":0.6,"height":0.2,"depth":0.6,"color":16711680}}`,
		`{"customization":{"bodyColor":"white","wingSpan":1.2}}`,
		`{"poop":{"id":"p1","x":0,"y":10,"z":0}}`,
		`{"diarrhea":[{"id":"d1"},{"id":"d2"}]}`,
		`{"stealHat":{"npcId":"npc_0"}}`,
		`{"dropHat":{"id":"h1","x":1,"y":0.1,"z":1,"width":0.6,"height":0.2,"depth":0.6,"color":255}}`,
		`{"pickHat":{"hatId":"h1"}}`,
		`{"poopHit":{"npcId":"npc_3","pooper":"01HXPLAYER"}}`,
		`{"chat":"hello"}`,
	}
	for _, msg := range samples {
		validateJSON(t, clientSchema, []byte(msg))

		f, err := protocol.Decode([]byte(msg))
		if err != nil {
			t.Fatalf("schema-valid frame rejected: %s: %v", msg, err)
		}
		if len(f.Actions()) != 1 {
			t.Fatalf("expected one action from %s, got %d", msg, len(f.Actions()))
		}
	}
}
