package world

import "github.com/Scrimzay/seagulltown/internal/types"

// Layout is the static half of the world. Generated once at startup and
// shared read-only by every connection, so it needs no locking.
type Layout struct {
	Buildings []Building `json:"buildings"`
	Roads     []Strip    `json:"roads"`
	Sidewalks []Strip    `json:"sidewalks"`
	NPCs      []NPCSeed  `json:"npcs"`
	Cars      []Car      `json:"cars"`
}

type Building struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"` // half the height, boxes are centered
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Color  int     `json:"color"`
}

// NPCSeed is where an NPC starts. The live copy is owned by the Store.
type NPCSeed struct {
	ID           string     `json:"id"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Z            float64    `json:"z"`
	IsHorizontal bool       `json:"isHorizontal"`
	SidewalkPos  float64    `json:"sidewalkPos"` // the locked coordinate
	Direction    int        `json:"direction"`
	Speed        float64    `json:"speed"`
	Hat          *types.Hat `json:"hat,omitempty"`
}

type Car struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	IsHorizontal bool    `json:"isHorizontal"`
	RoadPos      float64 `json:"roadPos"`
	Direction    int     `json:"direction"`
	Speed        float64 `json:"speed"`
	Color        int     `json:"color"`
}
