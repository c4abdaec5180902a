package server

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/Scrimzay/seagulltown/internal/journal"
	"github.com/Scrimzay/seagulltown/internal/protocol"
	"github.com/Scrimzay/seagulltown/internal/world"
)

// Dispatcher applies decoded client frames. State changes go to the store,
// one-off events straight to the broadcaster.
type Dispatcher struct {
	store       *world.Store
	broadcaster *world.Broadcaster
	journal     journal.Recorder
	log         *zap.Logger
}

func NewDispatcher(store *world.Store, broadcaster *world.Broadcaster, rec journal.Recorder, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = journal.Discard
	}
	return &Dispatcher{
		store:       store,
		broadcaster: broadcaster,
		journal:     rec,
		log:         log.Named("dispatch"),
	}
}

// Handle applies every action in the frame in order, then pushes one full
// snapshot to everybody, sender included, so clients can reconcile their
// predicted state against ours.
func (d *Dispatcher) Handle(playerID string, f protocol.Frame) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic handling frame",
				zap.String("player", playerID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	for _, act := range f.Actions() {
		d.apply(playerID, act)
	}
	d.broadcaster.BroadcastState("")
}

func (d *Dispatcher) apply(playerID string, act protocol.Action) {
	switch a := act.(type) {
	case protocol.Move:
		d.store.MovePlayer(playerID, a.Position, a.Yaw, a.Hat)

	case protocol.Customize:
		d.store.Customize(playerID, a.Customization)

	case protocol.Poop:
		d.broadcaster.Relay(playerID, protocol.PoopEvent{Poop: a.Raw})

	case protocol.Diarrhea:
		d.broadcaster.Relay(playerID, protocol.DiarrheaEvent{Diarrhea: a.Raw})

	case protocol.StealHat:
		if !d.store.StealHat(playerID, a.NPCID) {
			d.log.Debug("steal ignored", zap.String("player", playerID), zap.String("npc", a.NPCID))
		}

	case protocol.DropHat:
		if !d.store.DropHat(playerID, a.ID, world.GroundHat{Vec3: a.Vec3, Hat: a.Hat}) {
			d.log.Debug("drop ignored", zap.String("player", playerID), zap.String("hat", a.ID))
		}

	case protocol.PickHat:
		if !d.store.PickHat(playerID, a.HatID) {
			d.log.Debug("pick ignored", zap.String("player", playerID), zap.String("hat", a.HatID))
		}

	case protocol.PoopHit:
		pooper := a.Pooper
		if pooper == "" {
			pooper = playerID
		}
		d.store.PoopHit(a.NPCID, pooper)

	case protocol.Chat:
		d.broadcaster.Relay(playerID, protocol.ChatEvent{Chat: protocol.ChatLine(playerID, a.Text)})
		if err := d.journal.Record(journal.Entry{Kind: journal.KindChat, Player: playerID, Text: a.Text}); err != nil {
			d.log.Warn("journal write failed", zap.Error(err))
		}

	default:
		panic(fmt.Sprintf("unhandled action %T", act))
	}
}
