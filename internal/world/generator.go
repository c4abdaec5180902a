package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Building dimensions, sampled uniformly per candidate.
const (
	minBuildingSide   = 4.0
	maxBuildingSide   = 14.0
	minBuildingHeight = 10.0
	maxBuildingHeight = 50.0

	npcHeight      = 0.75
	minNPCSpeed    = 0.05
	maxNPCSpeed    = 0.08
	carHeight      = 0.5
	carSpeed       = 0.2
	maxCarColor    = 0xffffff
	walkEdgeMargin = 10.0 // NPCs turn around this far from the world edge
)

type GenParams struct {
	WorldSize     float64 `yaml:"world_size"`
	RoadWidth     float64 `yaml:"road_width"`
	SidewalkWidth float64 `yaml:"sidewalk_width"`
	RoadSpacing   float64 `yaml:"road_spacing"`
	RoadSpan      float64 `yaml:"road_span"`   // road lines run from -span to +span
	EdgeMargin    float64 `yaml:"edge_margin"` // keep placements this far inside the edge
	Buildings     int     `yaml:"buildings"`   // candidates, not a guaranteed count
	NPCs          int     `yaml:"npcs"`
	Cars          int     `yaml:"cars"`
	NPCHatChance  float64 `yaml:"npc_hat_chance"`
}

func DefaultGenParams() GenParams {
	return GenParams{
		WorldSize:     400,
		RoadWidth:     8,
		SidewalkWidth: 3,
		RoadSpacing:   40,
		RoadSpan:      180,
		EdgeMargin:    20,
		Buildings:     200,
		NPCs:          50,
		Cars:          20,
		NPCHatChance:  0.5,
	}
}

func (p GenParams) Validate() error {
	var errs []error
	if p.WorldSize <= 0 {
		errs = append(errs, fmt.Errorf("world_size must be positive, got %v", p.WorldSize))
	}
	if p.RoadWidth <= 0 || p.SidewalkWidth <= 0 {
		errs = append(errs, fmt.Errorf("road_width and sidewalk_width must be positive"))
	}
	if p.RoadSpacing <= 0 {
		errs = append(errs, fmt.Errorf("road_spacing must be positive, got %v", p.RoadSpacing))
	}
	if p.RoadSpan < 0 {
		errs = append(errs, fmt.Errorf("road_span must not be negative, got %v", p.RoadSpan))
	}
	if p.EdgeMargin < 0 || 2*p.EdgeMargin >= p.WorldSize {
		errs = append(errs, fmt.Errorf("edge_margin %v does not fit a world of size %v", p.EdgeMargin, p.WorldSize))
	}
	if p.Buildings < 0 || p.NPCs < 0 || p.Cars < 0 {
		errs = append(errs, fmt.Errorf("entity counts must not be negative"))
	}
	if p.NPCHatChance < 0 || p.NPCHatChance > 1 {
		errs = append(errs, fmt.Errorf("npc_hat_chance must be within [0,1], got %v", p.NPCHatChance))
	}
	return errors.Join(errs...)
}

// halfSpan is the range placements are sampled from on either axis.
func (p GenParams) halfSpan() float64 {
	return p.WorldSize/2 - p.EdgeMargin
}

// WalkLimit is how far from the origin NPCs may walk before turning back.
func (p GenParams) WalkLimit() float64 {
	return p.WorldSize/2 - walkEdgeMargin
}

// Generate builds the static city. Roads go down first so building
// placement can reject anything that lands on a road or sidewalk.
// Rejected candidates are dropped, not retried, so the building count
// can come out below p.Buildings.
func Generate(p GenParams, rng *rand.Rand) *Layout {
	l := &Layout{
		Buildings: []Building{},
		Roads:     []Strip{},
		Sidewalks: []Strip{},
		NPCs:      []NPCSeed{},
		Cars:      []Car{},
	}

	layRoads(l, p)
	placeBuildings(l, p, rng)
	placeNPCs(l, p, rng)
	placeCars(l, p, rng)

	return l
}

func layRoads(l *Layout, p GenParams) {
	flank := p.RoadWidth/2 + p.SidewalkWidth/2
	lines := int(math.Floor(2*p.RoadSpan/p.RoadSpacing + 1e-9))

	for i := 0; i <= lines; i++ {
		c := -p.RoadSpan + float64(i)*p.RoadSpacing
		l.Roads = append(l.Roads,
			Strip{X: 0, Z: c, IsHorizontal: true},
			Strip{X: c, Z: 0, IsHorizontal: false},
		)
		l.Sidewalks = append(l.Sidewalks,
			Strip{X: 0, Z: c + flank, IsHorizontal: true},
			Strip{X: 0, Z: c - flank, IsHorizontal: true},
			Strip{X: c + flank, Z: 0, IsHorizontal: false},
			Strip{X: c - flank, Z: 0, IsHorizontal: false},
		)
	}
}

func placeBuildings(l *Layout, p GenParams, rng *rand.Rand) {
	span := p.halfSpan()
	for i := 0; i < p.Buildings; i++ {
		width := uniform(rng, minBuildingSide, maxBuildingSide)
		depth := uniform(rng, minBuildingSide, maxBuildingSide)
		height := uniform(rng, minBuildingHeight, maxBuildingHeight)
		color := randomBuildingColor(rng)
		x := uniform(rng, -span, span)
		z := uniform(rng, -span, span)

		if !clearsAll(l, p, x, z, width, depth) {
			continue
		}

		l.Buildings = append(l.Buildings, Building{
			X:      x,
			Y:      height / 2,
			Z:      z,
			Width:  width,
			Height: height,
			Depth:  depth,
			Color:  color,
		})
	}
}

func placeNPCs(l *Layout, p GenParams, rng *rand.Rand) {
	if len(l.Sidewalks) == 0 {
		return
	}
	span := p.halfSpan()
	for i := 0; i < p.NPCs; i++ {
		sw := l.Sidewalks[rng.Intn(len(l.Sidewalks))]
		along := uniform(rng, -span, span)
		dir := randomDirection(rng)

		npc := NPCSeed{
			ID:           fmt.Sprintf("npc_%d", i),
			Y:            npcHeight,
			IsHorizontal: sw.IsHorizontal,
			SidewalkPos:  sw.Offset(),
			Direction:    dir,
			Speed:        uniform(rng, minNPCSpeed, maxNPCSpeed),
		}
		if sw.IsHorizontal {
			npc.X, npc.Z = along, sw.Z
		} else {
			npc.X, npc.Z = sw.X, along
		}
		if rng.Float64() < p.NPCHatChance {
			npc.Hat = randomHat(rng)
		}
		l.NPCs = append(l.NPCs, npc)
	}
}

func placeCars(l *Layout, p GenParams, rng *rand.Rand) {
	if len(l.Roads) == 0 {
		return
	}
	span := p.halfSpan()
	for i := 0; i < p.Cars; i++ {
		road := l.Roads[rng.Intn(len(l.Roads))]
		along := uniform(rng, -span, span)

		car := Car{
			Y:            carHeight,
			IsHorizontal: road.IsHorizontal,
			RoadPos:      road.Offset(),
			Direction:    randomDirection(rng),
			Speed:        carSpeed,
			Color:        rng.Intn(maxCarColor),
		}
		if road.IsHorizontal {
			car.X, car.Z = along, road.Z
		} else {
			car.X, car.Z = road.X, along
		}
		l.Cars = append(l.Cars, car)
	}
}
