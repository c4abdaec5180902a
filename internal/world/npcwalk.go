package world

// NPC speeds are tuned in units per frame at 60fps.
const framesPerSecond = 60.0

// StepNPCs walks every NPC along its lane for dt seconds. The lane
// coordinate never changes; an NPC that reaches the walk limit turns around.
func (s *Store) StepNPCs(dt float64) {
	if dt <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, npc := range s.npcs {
		npc.step(dt, s.walkLimit)
	}
}

func (n *npcState) step(dt, limit float64) {
	delta := n.speed * float64(n.direction) * dt * framesPerSecond

	if n.isHorizontal {
		n.pos.X += delta
		n.pos.Z = n.lane
		n.pos.X = n.bounce(n.pos.X, limit)
	} else {
		n.pos.Z += delta
		n.pos.X = n.lane
		n.pos.Z = n.bounce(n.pos.Z, limit)
	}
}

// bounce flips direction once the NPC is past the limit and pulls it back
// inside so it can't drift out on a long tick.
func (n *npcState) bounce(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	switch {
	case v > limit:
		n.direction = -1
		v = limit
	case v < -limit:
		n.direction = 1
		v = -limit
	default:
		return v
	}
	n.rotationY = facing(n.isHorizontal, n.direction)
	return v
}
