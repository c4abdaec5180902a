package server

import (
	"testing"

	"github.com/Scrimzay/seagulltown/internal/protocol"
	"github.com/Scrimzay/seagulltown/internal/types"
	"github.com/Scrimzay/seagulltown/internal/world"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *world.Store) {
	t.Helper()
	layout := &world.Layout{NPCs: []world.NPCSeed{
		{ID: "npc_0", Y: 0.75, Z: 5.5, IsHorizontal: true, SidewalkPos: 5.5, Direction: 1, Speed: 0.05,
			Hat: &types.Hat{Width: 0.8, Height: 0.6, Depth: 0.8, Color: 0x0000ff}},
	}}
	store := world.NewStore(layout, 190)
	if _, err := store.AddPlayer("p1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	bc := world.NewBroadcaster(store, world.BroadcasterOptions{}, nil)
	return NewDispatcher(store, bc, nil, nil), store
}

func handle(t *testing.T, d *Dispatcher, msg string) {
	t.Helper()
	f, err := protocol.Decode([]byte(msg))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	d.Handle("p1", f)
}

// steal, drop and pick in one frame run in that order, so the hat makes the
// full trip back onto the player's head.
func TestDispatchStealDropPickInOneFrame(t *testing.T) {
	d, store := newTestDispatcher(t)
	handle(t, d, `{
		"pickHat": {"hatId": "h1"},
		"dropHat": {"id": "h1", "x": 2, "y": 0.1, "z": 2, "width": 0.8, "height": 0.6, "depth": 0.8, "color": 255},
		"stealHat": {"npcId": "npc_0"}
	}`)

	p, _ := store.Player("p1")
	if p.Hat == nil || p.Hat.Color != 0x0000ff {
		t.Fatalf("expected the npc's hat back on p1, got %+v", p.Hat)
	}
	if c := store.Counts(); c.GroundHats != 0 {
		t.Fatalf("ground should be empty, got %d", c.GroundHats)
	}
	npc, _ := store.NPC("npc_0")
	if npc.Hat != nil {
		t.Fatalf("npc kept its hat")
	}
}

func TestDispatchMoveThenCustomize(t *testing.T) {
	d, store := newTestDispatcher(t)
	handle(t, d, `{"customization":{"bodyColor":"grey"},"position":{"x":3,"y":4,"z":5},"yaw":2}`)

	p, _ := store.Player("p1")
	if p.X != 3 || p.Y != 4 || p.Z != 5 || p.Yaw != 2 {
		t.Fatalf("move not applied: %+v", p)
	}
	if p.Customization["bodyColor"] != "grey" {
		t.Fatalf("customization not applied: %+v", p.Customization)
	}
}

func TestDispatchUnknownPlayerIsHarmless(t *testing.T) {
	d, store := newTestDispatcher(t)
	f, _ := protocol.Decode([]byte(`{"position":{"x":1,"y":1,"z":1},"stealHat":{"npcId":"npc_0"},"chat":"hi"}`))
	d.Handle("ghost", f)

	if c := store.Counts(); c.Players != 1 {
		t.Fatalf("ghost frame created a player")
	}
	npc, _ := store.NPC("npc_0")
	if npc.Hat == nil {
		t.Fatalf("ghost stole a hat")
	}
}
