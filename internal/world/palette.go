package world

import (
	"math/rand"

	"github.com/Scrimzay/seagulltown/internal/types"
)

var BuildingColors = []int{
	0x8b4513, // brown
	0xa9a9a9, // grey
	0x4682b4, // steel blue
	0xdeb887, // tan
}

// HatTypes are the hats NPCs can spawn with.
var HatTypes = []types.Hat{
	{Width: 0.6, Height: 0.2, Depth: 0.6, Color: 0xff0000},
	{Width: 0.8, Height: 0.6, Depth: 0.8, Color: 0x0000ff},
	{Width: 0.7, Height: 0.3, Depth: 0.7, Color: 0xffff00},
	{Width: 0.8, Height: 0.4, Depth: 0.8, Color: 0x800080},
	{Width: 0.5, Height: 0.5, Depth: 0.5, Color: 0x00ff00},
}

func randomHat(rng *rand.Rand) *types.Hat {
	return types.HatPtr(HatTypes[rng.Intn(len(HatTypes))])
}

func randomBuildingColor(rng *rand.Rand) int {
	return BuildingColors[rng.Intn(len(BuildingColors))]
}

func randomDirection(rng *rand.Rand) int {
	if rng.Float64() < 0.5 {
		return 1
	}
	return -1
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
