package world

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"github.com/Scrimzay/seagulltown/internal/types"
)

// Where every new seagull appears.
const SpawnHeight = 5.0

var ErrPlayerExists = errors.New("player already exists")

// Store is the single authoritative copy of everything that changes while
// the server runs: players, NPCs and hats lying on the ground. Every method
// is one critical section, so a snapshot never sees half of a mutation.
type Store struct {
	mu deadlock.RWMutex

	layout     *Layout
	walkLimit  float64
	players    map[string]*Player
	npcs       map[string]*npcState
	groundHats map[string]GroundHat
}

// NewStore seeds the NPC table from the layout. The layout itself is never
// touched again.
func NewStore(layout *Layout, walkLimit float64) *Store {
	s := &Store{
		layout:     layout,
		walkLimit:  walkLimit,
		players:    make(map[string]*Player),
		npcs:       make(map[string]*npcState, len(layout.NPCs)),
		groundHats: make(map[string]GroundHat),
	}
	for _, seed := range layout.NPCs {
		s.npcs[seed.ID] = newNPCState(seed)
	}
	return s
}

func (s *Store) Layout() *Layout {
	return s.layout
}

// AddPlayer creates a player at the default spawn point.
func (s *Store) AddPlayer(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; ok {
		return Player{}, fmt.Errorf("add %q: %w", id, ErrPlayerExists)
	}
	p := &Player{X: 0, Y: SpawnHeight, Z: 0}
	s.players[id] = p
	return *p, nil
}

// RemovePlayer drops a player. Whatever hat they wore leaves with them.
func (s *Store) RemovePlayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	return true
}

// MovePlayer overwrites position and yaw. A nil hat leaves the worn hat
// alone; only DropHat takes a hat off.
func (s *Store) MovePlayer(id string, pos types.Vec3, yaw float64, hat *types.Hat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return false
	}
	p.X, p.Y, p.Z = pos.X, pos.Y, pos.Z
	p.Yaw = yaw
	if hat != nil {
		p.Hat = types.HatPtr(*hat)
	}
	return true
}

func (s *Store) Customize(id string, c types.Customization) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return false
	}
	p.Customization = c.Clone()
	return true
}

// StealHat moves an NPC's hat onto the player, replacing anything the
// player had on.
func (s *Store) StealHat(playerID, npcID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return false
	}
	npc, ok := s.npcs[npcID]
	if !ok || npc.hat == nil {
		return false
	}
	p.Hat = npc.hat
	npc.hat = nil
	return true
}

// DropHat puts a hat on the ground under hatID and always clears the
// dropper's worn hat. An id already on the ground is refused so the hat
// lying there isn't overwritten.
func (s *Store) DropHat(playerID, hatID string, gh GroundHat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok || hatID == "" {
		return false
	}
	if _, taken := s.groundHats[hatID]; taken {
		return false
	}
	s.groundHats[hatID] = gh
	p.Hat = nil
	return true
}

// PickHat moves a ground hat onto the player.
func (s *Store) PickHat(playerID, hatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return false
	}
	gh, ok := s.groundHats[hatID]
	if !ok {
		return false
	}
	p.Hat = types.HatPtr(gh.Hat)
	delete(s.groundHats, hatID)
	return true
}

// PoopHit marks an NPC as pooped on. The first reporter keeps the credit;
// later hits on the same NPC change nothing and report false.
func (s *Store) PoopHit(npcID, pooper string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	npc, ok := s.npcs[npcID]
	if !ok || npc.pooped {
		return false
	}
	npc.pooped = true
	npc.pooper = pooper
	return true
}

// Snapshot deep-copies current state for broadcasting.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Players:    make(map[string]Player, len(s.players)),
		NPCs:       make(map[string]NPCView, len(s.npcs)),
		GroundHats: make(map[string]GroundHat, len(s.groundHats)),
	}
	for id, p := range s.players {
		snap.Players[id] = p.clone()
	}
	for id, npc := range s.npcs {
		snap.NPCs[id] = npc.view()
	}
	for id, gh := range s.groundHats {
		snap.GroundHats[id] = gh
	}
	return snap
}

func (s *Store) Player(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

func (s *Store) NPC(id string) (NPCView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	npc, ok := s.npcs[id]
	if !ok {
		return NPCView{}, false
	}
	return npc.view(), true
}

func (s *Store) GroundHat(id string) (GroundHat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gh, ok := s.groundHats[id]
	return gh, ok
}

type Counts struct {
	Players    int `json:"players"`
	NPCs       int `json:"npcs"`
	GroundHats int `json:"groundHats"`
}

func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Counts{
		Players:    len(s.players),
		NPCs:       len(s.npcs),
		GroundHats: len(s.groundHats),
	}
}
