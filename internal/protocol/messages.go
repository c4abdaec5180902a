package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Scrimzay/seagulltown/internal/world"
)

// Server -> client frames. The full-state frame is world.Snapshot as is.

// Welcome is sent once, right after the socket is accepted.
type Welcome struct {
	ID    string        `json:"id"`
	World *world.Layout `json:"world"`
}

type JoinEvent struct {
	Join string `json:"join"`
}

type ChatEvent struct {
	Chat string `json:"chat"`
}

type PoopEvent struct {
	Poop json.RawMessage `json:"poop"`
}

type DiarrheaEvent struct {
	Diarrhea json.RawMessage `json:"diarrhea"`
}

// ChatLine formats a chat message the way clients print it.
func ChatLine(playerID, text string) string {
	return fmt.Sprintf("Player %s: %s", playerID, text)
}
