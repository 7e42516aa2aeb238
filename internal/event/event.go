package event

import "time"

// Environment is the actor recorded for mutations no player caused.
const Environment = "Environment"

// Event is one recorded world mutation awaiting persistence.
// It is passed by value and never modified after construction; sinks that need
// normalized values derive their own copies.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	Action     Action    `json:"action"`
	World      int       `json:"world"`
	X          int       `json:"x"`
	Y          int       `json:"y"` // raw; clamping happens at write time
	Z          int       `json:"z"`
	Type       int       `json:"type"`
	Data       string    `json:"data"`
	RolledBack bool      `json:"rolled_back"`
}

// Block describes the block a mutation touched.
type Block struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Type int    `json:"type"`
	Data string `json:"data,omitempty"`
}

// New builds an Event stamped with the current time.
func New(actor string, action Action, world, x, y, z, blockType int, data string) Event {
	return Event{
		Timestamp: time.Now(),
		Actor:     actor,
		Action:    action,
		World:     world,
		X:         x,
		Y:         y,
		Z:         z,
		Type:      blockType,
		Data:      data,
	}
}

// NewBlockEvent is the uniform (actor, block, world) constructor every
// block-level producer goes through.
func NewBlockEvent(action Action, actor string, b Block, world int) Event {
	return New(actor, action, world, b.X, b.Y, b.Z, b.Type, b.Data)
}

// Explosion returns one event per affected block, all attributed to actor in world.
func Explosion(action Action, actor string, blocks []Block, world int) []Event {
	out := make([]Event, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, NewBlockEvent(action, actor, b, world))
	}
	return out
}

// CreeperExplosion records creeper damage; creepers are always environment-caused.
func CreeperExplosion(blocks []Block, world int) []Event {
	return Explosion(CreeperExploded, Environment, blocks, world)
}

// TNTExplosion records TNT damage attributed to actor (often whoever lit it).
func TNTExplosion(actor string, blocks []Block, world int) []Event {
	return Explosion(TNTExploded, actor, blocks, world)
}

// MiscExplosion records damage from any other explosion source.
func MiscExplosion(actor string, blocks []Block, world int) []Event {
	return Explosion(MiscExploded, actor, blocks, world)
}

// IsExplosion reports whether a is one of the explosion kinds.
func IsExplosion(a Action) bool {
	switch a {
	case TNTExploded, CreeperExploded, MiscExploded:
		return true
	}
	return false
}
