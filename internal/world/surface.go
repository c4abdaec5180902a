package world

import "math"

// Strip is a road or sidewalk: a band running the full length of the world
// along one axis. Horizontal strips sit at a fixed Z, vertical ones at a
// fixed X; the other coordinate is always 0.
type Strip struct {
	X            float64 `json:"x"`
	Z            float64 `json:"z"`
	IsHorizontal bool    `json:"isHorizontal"`
}

// Offset returns the coordinate the strip is pinned to.
func (s Strip) Offset() float64 {
	if s.IsHorizontal {
		return s.Z
	}
	return s.X
}

// Clears reports whether a box centered at (x, z) with the given footprint
// stays off a strip of the given width. Touching edges count as clear.
func (s Strip) Clears(x, z, width, depth, stripWidth float64) bool {
	if s.IsHorizontal {
		return math.Abs(z-s.Z) >= stripWidth/2+depth/2
	}
	return math.Abs(x-s.X) >= stripWidth/2+width/2
}

// clearsAll checks a footprint against every road and sidewalk.
func clearsAll(l *Layout, p GenParams, x, z, width, depth float64) bool {
	for _, road := range l.Roads {
		if !road.Clears(x, z, width, depth, p.RoadWidth) {
			return false
		}
	}
	for _, sw := range l.Sidewalks {
		if !sw.Clears(x, z, width, depth, p.SidewalkWidth) {
			return false
		}
	}
	return true
}

// facing returns the yaw an NPC uses when walking along a lane.
func facing(isHorizontal bool, direction int) float64 {
	if isHorizontal {
		if direction > 0 {
			return math.Pi
		}
		return 0
	}
	if direction > 0 {
		return math.Pi / 2
	}
	return -math.Pi / 2
}
