package event

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Action is the closed category of a mutation. Its ordinal is what the
// relational store persists, so new kinds are only ever appended.
type Action int

const (
	BlockBroken Action = iota
	BlockPlaced
	DestroySignText
	Teleport
	DeltaChest
	Command
	Chat
	Disconnect
	Login
	DoorOpen
	ButtonPress
	LeverSwitch
	CreateSignText
	LeafDecay
	FlintAndSteel
	TNTExploded
	CreeperExploded
	MiscExploded
	OpenChest
	BlockBurn
)

var actionNames = [...]string{
	BlockBroken:     "BLOCK_BROKEN",
	BlockPlaced:     "BLOCK_PLACED",
	DestroySignText: "DESTROY_SIGN_TEXT",
	Teleport:        "TELEPORT",
	DeltaChest:      "DELTA_CHEST",
	Command:         "COMMAND",
	Chat:            "CHAT",
	Disconnect:      "DISCONNECT",
	Login:           "LOGIN",
	DoorOpen:        "DOOR_OPEN",
	ButtonPress:     "BUTTON_PRESS",
	LeverSwitch:     "LEVER_SWITCH",
	CreateSignText:  "CREATE_SIGN_TEXT",
	LeafDecay:       "LEAF_DECAY",
	FlintAndSteel:   "FLINT_AND_STEEL",
	TNTExploded:     "TNT_EXPLOSION",
	CreeperExploded: "CREEPER_EXPLOSION",
	MiscExploded:    "MISC_EXPLOSION",
	OpenChest:       "OPEN_CHEST",
	BlockBurn:       "BLOCK_BURN",
}

// catalog holds the operator-facing labels. Kinds missing here fall back to
// their symbolic name in Label.
var catalog = map[Action]string{
	BlockBroken:     "broke block",
	BlockPlaced:     "placed block",
	DestroySignText: "destroyed sign text",
	Teleport:        "teleport",
	DeltaChest:      "changed chest",
	Command:         "command",
	Chat:            "chat",
	Disconnect:      "disconnect",
	Login:           "login",
	DoorOpen:        "door",
	ButtonPress:     "button",
	LeverSwitch:     "lever",
	CreateSignText:  "created sign text",
	LeafDecay:       "decayed leafe",
	FlintAndSteel:   "flint'd",
	TNTExploded:     "TNT-exploded",
	CreeperExploded: "Creeper-exploded",
	MiscExploded:    "Misc-exploded",
	OpenChest:       "opened chest",
	BlockBurn:       "burned block",
}

// Actions returns every known kind in ordinal order.
func Actions() []Action {
	out := make([]Action, len(actionNames))
	for i := range actionNames {
		out[i] = Action(i)
	}
	return out
}

// Known reports whether a is part of the enumeration.
func (a Action) Known() bool {
	return a >= 0 && int(a) < len(actionNames)
}

// String returns the symbolic name, or Action(n) for values outside the enumeration.
func (a Action) String() string {
	if a.Known() {
		return actionNames[a]
	}
	return "Action(" + strconv.Itoa(int(a)) + ")"
}

// Label returns the operator-facing label for a.
func (a Action) Label() string {
	return Label(a)
}

// Label is total: any value, known or not, yields a non-empty string.
func Label(a Action) string {
	if l, ok := catalog[a]; ok {
		return l
	}
	return a.String()
}

// ParseAction resolves a symbolic name such as "BLOCK_BROKEN".
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// MarshalJSON encodes known kinds by name and anything else by ordinal.
func (a Action) MarshalJSON() ([]byte, error) {
	if a.Known() {
		return json.Marshal(a.String())
	}
	return json.Marshal(int(a))
}

// UnmarshalJSON accepts either the symbolic name or the ordinal.
func (a *Action) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		parsed, err := ParseAction(name)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("action must be a name or an ordinal: %w", err)
	}
	*a = Action(n)
	return nil
}
