package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/Scrimzay/seagulltown/internal/types"
)

var redHat = types.Hat{Width: 0.6, Height: 0.2, Depth: 0.6, Color: 0xff0000}

// newTestStore builds a store over a small hand-made layout so tests know
// exactly which NPC wears what.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	layout := &Layout{
		NPCs: []NPCSeed{
			{ID: "npc_0", X: 10, Y: npcHeight, Z: 5.5, IsHorizontal: true, SidewalkPos: 5.5, Direction: 1, Speed: 0.06, Hat: types.HatPtr(redHat)},
			{ID: "npc_1", X: -5.5, Y: npcHeight, Z: 20, IsHorizontal: false, SidewalkPos: -5.5, Direction: -1, Speed: 0.07},
			{ID: "npc_3", X: 0, Y: npcHeight, Z: 45.5, IsHorizontal: true, SidewalkPos: 45.5, Direction: 1, Speed: 0.05},
		},
	}
	return NewStore(layout, DefaultGenParams().WalkLimit())
}

func mustAdd(t *testing.T, s *Store, id string) {
	t.Helper()
	if _, err := s.AddPlayer(id); err != nil {
		t.Fatalf("add player %s: %v", id, err)
	}
}

func TestAddPlayerSpawnsAtDefault(t *testing.T) {
	s := newTestStore(t)
	p, err := s.AddPlayer("a")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.X != 0 || p.Y != SpawnHeight || p.Z != 0 || p.Hat != nil {
		t.Fatalf("unexpected spawn: %+v", p)
	}

	if _, err := s.AddPlayer("a"); !errors.Is(err, ErrPlayerExists) {
		t.Fatalf("expected ErrPlayerExists, got %v", err)
	}
}

func TestPlayerLifecycle(t *testing.T) {
	s := newTestStore(t)
	const n = 5
	for i := 0; i < n; i++ {
		mustAdd(t, s, fmt.Sprintf("p%d", i))
	}
	if got := len(s.Snapshot().Players); got != n {
		t.Fatalf("expected %d players, got %d", n, got)
	}

	if !s.RemovePlayer("p2") {
		t.Fatalf("expected p2 removed")
	}
	if s.RemovePlayer("p2") {
		t.Fatalf("second remove should report false")
	}

	snap := s.Snapshot()
	if len(snap.Players) != n-1 {
		t.Fatalf("expected %d players, got %d", n-1, len(snap.Players))
	}
	if _, ok := snap.Players["p2"]; ok {
		t.Fatalf("p2 still present")
	}
	for _, id := range []string{"p0", "p1", "p3", "p4"} {
		if _, ok := snap.Players[id]; !ok {
			t.Fatalf("%s went missing", id)
		}
	}
}

func TestMovePlayerKeepsHatWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")

	if !s.MovePlayer("a", types.Vec3{X: 1, Y: 5, Z: 2}, 0.5, types.HatPtr(redHat)) {
		t.Fatalf("move failed")
	}
	if !s.MovePlayer("a", types.Vec3{X: 3, Y: 6, Z: 4}, 1.5, nil) {
		t.Fatalf("move failed")
	}

	p, _ := s.Player("a")
	if p.X != 3 || p.Y != 6 || p.Z != 4 || p.Yaw != 1.5 {
		t.Fatalf("position not applied: %+v", p)
	}
	if p.Hat == nil || *p.Hat != redHat {
		t.Fatalf("hat should survive a hatless move, got %+v", p.Hat)
	}

	if s.MovePlayer("ghost", types.Vec3{}, 0, nil) {
		t.Fatalf("moving an unknown player should be a no-op")
	}
}

func TestCustomizeReplacesWholesale(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")

	s.Customize("a", types.Customization{"bodyColor": "white", "scale": 1.2})
	s.Customize("a", types.Customization{"beak": "orange"})

	p, _ := s.Player("a")
	if len(p.Customization) != 1 || p.Customization["beak"] != "orange" {
		t.Fatalf("expected customization replaced, got %+v", p.Customization)
	}
}

func TestEmptyCustomizationIsKept(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")
	mustAdd(t, s, "b")
	s.Customize("a", types.Customization{})

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap struct {
		Players map[string]map[string]json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := string(snap.Players["a"]["customization"]); got != "{}" {
		t.Fatalf("explicit empty customization should encode as {}, got %q", got)
	}
	if got := string(snap.Players["b"]["customization"]); got != "null" {
		t.Fatalf("unset customization should encode as null, got %q", got)
	}
}

func TestStealHat(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")

	if s.StealHat("a", "npc_1") {
		t.Fatalf("npc_1 has no hat, steal should be a no-op")
	}
	if s.StealHat("a", "npc_404") {
		t.Fatalf("unknown npc should be a no-op")
	}
	if !s.StealHat("a", "npc_0") {
		t.Fatalf("steal from npc_0 failed")
	}

	p, _ := s.Player("a")
	if p.Hat == nil || *p.Hat != redHat {
		t.Fatalf("player should wear the stolen hat, got %+v", p.Hat)
	}
	npc, _ := s.NPC("npc_0")
	if npc.Hat != nil {
		t.Fatalf("npc should be bareheaded")
	}
	if s.StealHat("a", "npc_0") {
		t.Fatalf("second steal should be a no-op")
	}
}

func TestDropHatAlwaysClearsWornHat(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")
	s.MovePlayer("a", types.Vec3{}, 0, types.HatPtr(redHat))

	gh := GroundHat{Vec3: types.Vec3{X: 1, Y: 0.1, Z: 1}, Hat: redHat}
	if !s.DropHat("a", "h1", gh) {
		t.Fatalf("drop failed")
	}
	p, _ := s.Player("a")
	if p.Hat != nil {
		t.Fatalf("hat should be cleared after drop")
	}
	got, ok := s.GroundHat("h1")
	if !ok || got != gh {
		t.Fatalf("ground hat mismatch: %+v", got)
	}

	// bareheaded drop is still accepted
	if !s.DropHat("a", "h2", gh) {
		t.Fatalf("drop without a worn hat should be accepted")
	}
}

func TestDropHatRefusesTakenID(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")
	mustAdd(t, s, "b")

	first := GroundHat{Vec3: types.Vec3{X: 1}, Hat: redHat}
	s.DropHat("a", "h1", first)

	blue := types.Hat{Width: 0.8, Height: 0.6, Depth: 0.8, Color: 0x0000ff}
	s.MovePlayer("b", types.Vec3{}, 0, types.HatPtr(blue))
	if s.DropHat("b", "h1", GroundHat{Hat: blue}) {
		t.Fatalf("drop onto a taken id should be refused")
	}
	if got, _ := s.GroundHat("h1"); got != first {
		t.Fatalf("ground hat was overwritten: %+v", got)
	}
	if p, _ := s.Player("b"); p.Hat == nil {
		t.Fatalf("refused drop should leave b's hat on")
	}
	if s.DropHat("b", "", GroundHat{Hat: blue}) {
		t.Fatalf("empty id should be refused")
	}
}

func TestPickHat(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")

	if s.PickHat("a", "nope") {
		t.Fatalf("picking a missing hat should be a no-op")
	}

	s.DropHat("a", "h1", GroundHat{Vec3: types.Vec3{Y: 0.1}, Hat: redHat})
	if !s.PickHat("a", "h1") {
		t.Fatalf("pick failed")
	}
	if _, ok := s.GroundHat("h1"); ok {
		t.Fatalf("hat still on the ground")
	}
	p, _ := s.Player("a")
	if p.Hat == nil || *p.Hat != redHat {
		t.Fatalf("expected picked hat worn, got %+v", p.Hat)
	}
}

// hatLocations counts where a hat of the given colour currently is.
func hatLocations(snap Snapshot, color int) int {
	n := 0
	for _, p := range snap.Players {
		if p.Hat != nil && p.Hat.Color == color {
			n++
		}
	}
	for _, npc := range snap.NPCs {
		if npc.Hat != nil && npc.Hat.Color == color {
			n++
		}
	}
	for _, gh := range snap.GroundHats {
		if gh.Color == color {
			n++
		}
	}
	return n
}

func TestHatConservationStealDropPick(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")
	mustAdd(t, s, "b")

	check := func(step string) {
		t.Helper()
		if n := hatLocations(s.Snapshot(), redHat.Color); n != 1 {
			t.Fatalf("%s: red hat in %d places", step, n)
		}
	}

	check("start")
	s.StealHat("a", "npc_0")
	check("after steal")

	p, _ := s.Player("a")
	s.DropHat("a", "h1", GroundHat{Vec3: types.Vec3{X: 2, Y: 0.1, Z: 2}, Hat: *p.Hat})
	check("after drop")

	s.PickHat("b", "h1")
	check("after pick")

	b, _ := s.Player("b")
	if b.Hat == nil || *b.Hat != redHat {
		t.Fatalf("b should end up wearing the hat, got %+v", b.Hat)
	}
	a, _ := s.Player("a")
	if a.Hat != nil {
		t.Fatalf("a should be bareheaded")
	}
}

func TestPoopHitFirstReporterWins(t *testing.T) {
	s := newTestStore(t)

	if !s.PoopHit("npc_3", "alice") {
		t.Fatalf("first hit should mark the npc")
	}
	before := s.Snapshot().NPCs["npc_3"]

	if s.PoopHit("npc_3", "alice") {
		t.Fatalf("repeat hit should change nothing")
	}
	if s.PoopHit("npc_3", "bob") {
		t.Fatalf("later reporter should not take credit")
	}

	after := s.Snapshot().NPCs["npc_3"]
	if !after.Pooped || after.Pooper != "alice" {
		t.Fatalf("expected pooped by alice, got %+v", after)
	}
	if before != after {
		t.Fatalf("repeat hits changed the npc: %+v -> %+v", before, after)
	}
	if s.PoopHit("npc_999", "alice") {
		t.Fatalf("unknown npc should be a no-op")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, "a")
	s.MovePlayer("a", types.Vec3{}, 0, types.HatPtr(redHat))
	s.Customize("a", types.Customization{"k": "v"})

	snap := s.Snapshot()
	snap.Players["a"].Hat.Color = 1
	snap.Players["a"].Customization["k"] = "changed"
	snap.NPCs["npc_0"].Hat.Color = 2

	p, _ := s.Player("a")
	if p.Hat.Color != redHat.Color || p.Customization["k"] != "v" {
		t.Fatalf("snapshot aliases player state: %+v", p)
	}
	npc, _ := s.NPC("npc_0")
	if npc.Hat.Color != redHat.Color {
		t.Fatalf("snapshot aliases npc state")
	}
}

func TestSnapshotHidesNPCMovementFields(t *testing.T) {
	s := newTestStore(t)
	view := s.Snapshot().NPCs["npc_1"]
	if view.X != -5.5 || view.Z != 20 || view.Y != npcHeight {
		t.Fatalf("unexpected npc view: %+v", view)
	}
	if view.Pooped || view.Pooper != "" || view.Hat != nil {
		t.Fatalf("fresh npc should be clean: %+v", view)
	}
}

// Hammers the store from many goroutines; run with -race.
func TestStoreConcurrentMutation(t *testing.T) {
	layout := Generate(DefaultGenParams(), rand.New(rand.NewSource(5)))
	s := NewStore(layout, DefaultGenParams().WalkLimit())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("p%d", i)
		mustAdd(t, s, id)
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				npc := fmt.Sprintf("npc_%d", j%len(layout.NPCs))
				hat := fmt.Sprintf("%s-%d", id, j)
				s.MovePlayer(id, types.Vec3{X: float64(j), Y: 5}, float64(i), nil)
				s.StealHat(id, npc)
				s.DropHat(id, hat, GroundHat{Hat: redHat})
				s.PickHat(id, hat)
				s.PoopHit(npc, id)
				s.StepNPCs(0.01)
				_ = s.Snapshot()
			}
		}(i, id)
	}
	wg.Wait()

	if c := s.Counts(); c.Players != 8 || c.GroundHats != 0 {
		t.Fatalf("unexpected counts after run: %+v", c)
	}
}
