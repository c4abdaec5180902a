package world

import "github.com/Scrimzay/seagulltown/internal/types"

// Player is one connected seagull as it appears in a snapshot.
type Player struct {
	X             float64             `json:"x"`
	Y             float64             `json:"y"`
	Z             float64             `json:"z"`
	Yaw           float64             `json:"yaw"`
	Hat           *types.Hat          `json:"hat,omitempty"`
	Customization types.Customization `json:"customization"` // null until set; {} stays {}
}

func (p Player) clone() Player {
	if p.Hat != nil {
		p.Hat = types.HatPtr(*p.Hat)
	}
	p.Customization = p.Customization.Clone()
	return p
}

// NPCView is the part of an NPC that clients get to see. Lane, direction
// and speed stay server side.
type NPCView struct {
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Z         float64    `json:"z"`
	RotationY float64    `json:"rotationY"`
	Hat       *types.Hat `json:"hat,omitempty"`
	Pooped    bool       `json:"pooped"`
	Pooper    string     `json:"pooper,omitempty"`
}

// GroundHat is a hat lying in the world waiting to be picked up.
type GroundHat struct {
	types.Vec3
	types.Hat
}

// this is the live per-NPC record, mutated by hat steals, poop hits and the walker
type npcState struct {
	pos          types.Vec3
	rotationY    float64
	isHorizontal bool
	lane         float64
	direction    int
	speed        float64
	hat          *types.Hat
	pooped       bool
	pooper       string
}

func newNPCState(seed NPCSeed) *npcState {
	n := &npcState{
		pos:          types.Vec3{X: seed.X, Y: seed.Y, Z: seed.Z},
		isHorizontal: seed.IsHorizontal,
		lane:         seed.SidewalkPos,
		direction:    seed.Direction,
		speed:        seed.Speed,
	}
	if n.direction == 0 {
		n.direction = 1
	}
	n.rotationY = facing(n.isHorizontal, n.direction)
	if seed.Hat != nil {
		n.hat = types.HatPtr(*seed.Hat)
	}
	return n
}

func (n *npcState) view() NPCView {
	v := NPCView{
		X:         n.pos.X,
		Y:         n.pos.Y,
		Z:         n.pos.Z,
		RotationY: n.rotationY,
		Pooped:    n.pooped,
		Pooper:    n.pooper,
	}
	if n.hat != nil {
		v.Hat = types.HatPtr(*n.hat)
	}
	return v
}

// Snapshot is the full-state frame pushed to clients.
type Snapshot struct {
	Players    map[string]Player    `json:"players"`
	NPCs       map[string]NPCView   `json:"npcs"`
	GroundHats map[string]GroundHat `json:"groundHats"`
}
