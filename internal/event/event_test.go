package event_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
)

func TestLabel_KnownActions(t *testing.T) {
	assert.Equal(t, "broke block", event.Label(event.BlockBroken))
	assert.Equal(t, "Creeper-exploded", event.CreeperExploded.Label())
	assert.Equal(t, "burned block", event.BlockBurn.Label())
}

func TestLabel_EveryActionIsNonEmpty(t *testing.T) {
	for _, a := range event.Actions() {
		assert.NotEmpty(t, event.Label(a), "action %d", int(a))
	}
}

func TestLabel_UnknownFallsBackToSymbolicName(t *testing.T) {
	unknown := event.Action(99)
	assert.Equal(t, "Action(99)", event.Label(unknown))
	assert.Equal(t, "Action(-1)", event.Label(event.Action(-1)))
}

func TestParseAction(t *testing.T) {
	a, err := event.ParseAction("CREEPER_EXPLOSION")
	require.NoError(t, err)
	assert.Equal(t, event.CreeperExploded, a)

	_, err = event.ParseAction("NOPE")
	assert.Error(t, err)
}

func TestAction_JSON(t *testing.T) {
	var ev event.Event
	require.NoError(t, json.Unmarshal([]byte(`{"actor":"Steve","action":"BLOCK_PLACED","y":-3}`), &ev))
	assert.Equal(t, event.BlockPlaced, ev.Action)
	assert.Equal(t, -3, ev.Y)

	require.NoError(t, json.Unmarshal([]byte(`{"action":17}`), &ev))
	assert.Equal(t, event.MiscExploded, ev.Action)

	b, err := json.Marshal(event.Chat)
	require.NoError(t, err)
	assert.JSONEq(t, `"CHAT"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"action":"WHAT"}`), &ev))
}

func TestCreeperExplosion_OneEventPerBlock(t *testing.T) {
	blocks := []event.Block{
		{X: 1, Y: 64, Z: 1, Type: 3},
		{X: 2, Y: 64, Z: 1, Type: 3},
		{X: 1, Y: 63, Z: 2, Type: 1},
	}
	evs := event.CreeperExplosion(blocks, 2)

	require.Len(t, evs, 3)
	for i, ev := range evs {
		assert.Equal(t, event.Environment, ev.Actor)
		assert.Equal(t, event.CreeperExploded, ev.Action)
		assert.Equal(t, 2, ev.World)
		assert.Equal(t, blocks[i].X, ev.X)
		assert.Equal(t, blocks[i].Y, ev.Y)
		assert.Equal(t, blocks[i].Type, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	}
}

func TestTNTExplosion_AttributesActor(t *testing.T) {
	evs := event.TNTExplosion("Alex", []event.Block{{X: 5, Y: 200, Z: 5}}, 0)
	require.Len(t, evs, 1)
	assert.Equal(t, "Alex", evs[0].Actor)
	assert.Equal(t, 200, evs[0].Y, "construction keeps the raw y")
	assert.True(t, event.IsExplosion(evs[0].Action))
	assert.False(t, event.IsExplosion(event.BlockBroken))
}

func TestExplosion_NoBlocks(t *testing.T) {
	assert.Empty(t, event.MiscExplosion("x", nil, 0))
}
