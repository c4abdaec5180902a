package types

// Wire-level values shared by the world state and the protocol layer.
// Everything here round-trips through JSON untouched; the server never
// interprets hats or customization beyond storing and relaying them.

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hat is the box a seagull or NPC can wear. Color is a 24-bit RGB int.
type Hat struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Color  int     `json:"color"`
}

// Customization is free-form visual parameters picked by the client.
// Replaced wholesale, never merged.
type Customization map[string]any

// Clone returns a shallow copy so snapshots don't alias the stored map.
func (c Customization) Clone() Customization {
	if c == nil {
		return nil
	}
	out := make(Customization, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// HatPtr copies h onto the heap. Stored hats are never shared between owners.
func HatPtr(h Hat) *Hat {
	return &h
}
