package protocol

import (
	"encoding/json"

	"github.com/Scrimzay/seagulltown/internal/types"
)

// Action is one thing a client frame asks for. A frame can carry several;
// Frame.Actions lists them in the order they must be applied.
type Action interface {
	action()
}

// Move overwrites the sender's position and yaw. Hat is only applied when
// the frame carried one.
type Move struct {
	Position types.Vec3
	Yaw      float64
	Hat      *types.Hat
}

// Customize replaces the sender's customization wholesale.
type Customize struct {
	Customization types.Customization
}

// Poop is relayed verbatim; the client-chosen id lets peers dedupe against
// their own predicted copy.
type Poop struct {
	Raw json.RawMessage
}

// Diarrhea is a burst of poops, also relayed verbatim.
type Diarrhea struct {
	Raw json.RawMessage
}

type StealHat struct {
	NPCID string `json:"npcId"`
}

// DropHat carries the ground copy of the hat, position and all.
type DropHat struct {
	ID string `json:"id"`
	types.Vec3
	types.Hat
}

type PickHat struct {
	HatID string `json:"hatId"`
}

type PoopHit struct {
	NPCID  string `json:"npcId"`
	Pooper string `json:"pooper"`
}

type Chat struct {
	Text string
}

func (Move) action()      {}
func (Customize) action() {}
func (Poop) action()      {}
func (Diarrhea) action()  {}
func (StealHat) action()  {}
func (DropHat) action()   {}
func (PickHat) action()   {}
func (PoopHit) action()   {}
func (Chat) action()      {}
