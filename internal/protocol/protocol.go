package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Scrimzay/seagulltown/internal/types"
)

var (
	ErrEmptyFrame = errors.New("empty frame")
	ErrMalformed  = errors.New("malformed frame")
)

// Client frame keys.
const (
	KeyPosition      = "position"
	KeyYaw           = "yaw"
	KeyHat           = "hat"
	KeyCustomization = "customization"
	KeyPoop          = "poop"
	KeyDiarrhea      = "diarrhea"
	KeyStealHat      = "stealHat"
	KeyDropHat       = "dropHat"
	KeyPickHat       = "pickHat"
	KeyPoopHit       = "poopHit"
	KeyChat          = "chat"
)

// Frame is a decoded client frame. Every field is optional; nil means the
// key was absent or null.
type Frame struct {
	Position      *types.Vec3
	Yaw           *float64
	Hat           *types.Hat
	Customization types.Customization
	Poop          json.RawMessage
	Diarrhea      json.RawMessage
	StealHat      *StealHat
	DropHat       *DropHat
	PickHat       *PickHat
	PoopHit       *PoopHit
	Chat          *string

	// Keys this server doesn't know, sorted. Ignored, kept for logging.
	Unknown []string
}

// Decode parses one client frame. A frame whose known fields don't parse
// is rejected as a whole; unknown keys are tolerated.
func Decode(msg []byte) (Frame, error) {
	var f Frame

	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 {
		return f, ErrEmptyFrame
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return f, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return f, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	for key, val := range raw {
		if isNull(val) {
			continue
		}

		var err error
		switch key {
		case KeyPosition:
			f.Position = new(types.Vec3)
			err = json.Unmarshal(val, f.Position)
		case KeyYaw:
			f.Yaw = new(float64)
			err = json.Unmarshal(val, f.Yaw)
		case KeyHat:
			f.Hat = new(types.Hat)
			err = json.Unmarshal(val, f.Hat)
		case KeyCustomization:
			err = json.Unmarshal(val, &f.Customization)
		case KeyPoop:
			f.Poop, err = expectJSON(val, '{')
		case KeyDiarrhea:
			f.Diarrhea, err = expectJSON(val, '[')
		case KeyStealHat:
			f.StealHat = new(StealHat)
			err = json.Unmarshal(val, f.StealHat)
		case KeyDropHat:
			f.DropHat = new(DropHat)
			err = json.Unmarshal(val, f.DropHat)
		case KeyPickHat:
			f.PickHat = new(PickHat)
			err = json.Unmarshal(val, f.PickHat)
		case KeyPoopHit:
			f.PoopHit = new(PoopHit)
			err = json.Unmarshal(val, f.PoopHit)
		case KeyChat:
			f.Chat = new(string)
			err = json.Unmarshal(val, f.Chat)
		default:
			f.Unknown = append(f.Unknown, key)
		}
		if err != nil {
			return Frame{}, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
	}

	sort.Strings(f.Unknown)
	return f, nil
}

// Actions lists what the frame asks for in application order: move,
// customize, poop, diarrhea, stealHat, dropHat, pickHat, poopHit, chat.
// yaw and hat only ride along with a position.
func (f Frame) Actions() []Action {
	var acts []Action

	if f.Position != nil {
		m := Move{Position: *f.Position, Hat: f.Hat}
		if f.Yaw != nil {
			m.Yaw = *f.Yaw
		}
		acts = append(acts, m)
	}
	if f.Customization != nil {
		acts = append(acts, Customize{Customization: f.Customization})
	}
	if f.Poop != nil {
		acts = append(acts, Poop{Raw: f.Poop})
	}
	if f.Diarrhea != nil {
		acts = append(acts, Diarrhea{Raw: f.Diarrhea})
	}
	if f.StealHat != nil {
		acts = append(acts, *f.StealHat)
	}
	if f.DropHat != nil {
		acts = append(acts, *f.DropHat)
	}
	if f.PickHat != nil {
		acts = append(acts, *f.PickHat)
	}
	if f.PoopHit != nil {
		acts = append(acts, *f.PoopHit)
	}
	if f.Chat != nil && *f.Chat != "" {
		acts = append(acts, Chat{Text: *f.Chat})
	}
	return acts
}

func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}

// expectJSON checks the value opens with the given delimiter and returns a
// private copy, since relayed events outlive the read buffer.
func expectJSON(val json.RawMessage, open byte) (json.RawMessage, error) {
	v := bytes.TrimSpace(val)
	if len(v) == 0 || v[0] != open {
		return nil, fmt.Errorf("expected %q", open)
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, nil
}
