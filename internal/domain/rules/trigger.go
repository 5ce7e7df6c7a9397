// Package rules defines the declarative rule model: triggers, effects, and
// the rules that bind them together.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// TriggerType is the class of game event a rule listens for.
type TriggerType string

const (
	// Movement
	OnMoveStart    TriggerType = "ON_MOVE_START"
	OnPassOver     TriggerType = "ON_PASS_OVER"
	OnLand         TriggerType = "ON_LAND"
	OnBackwardMove TriggerType = "ON_BACKWARD_MOVE"
	OnTeleport     TriggerType = "ON_TELEPORT"

	// Turn
	OnTurnStart TriggerType = "ON_TURN_START"
	OnTurnEnd   TriggerType = "ON_TURN_END"
	OnDiceRoll  TriggerType = "ON_DICE_ROLL"

	// Interaction
	OnPlayerBypass TriggerType = "ON_PLAYER_BYPASS"
	OnSameTile     TriggerType = "ON_SAME_TILE"
)

var triggers = map[TriggerType]struct {
	positional bool
}{
	OnMoveStart:    {positional: true},
	OnPassOver:     {positional: true},
	OnLand:         {positional: true},
	OnBackwardMove: {positional: true},
	OnTeleport:     {positional: true},
	OnTurnStart:    {},
	OnTurnEnd:      {},
	OnDiceRoll:     {},
	OnPlayerBypass: {},
	OnSameTile:     {positional: true},
}

// Known reports whether t is part of the trigger catalogue.
func (t TriggerType) Known() bool {
	_, ok := triggers[t]
	return ok
}

// Positional reports whether the trigger happens at a board position, in
// which case a rule's tile binding must match the event position.
func (t TriggerType) Positional() bool {
	return triggers[t].positional
}
