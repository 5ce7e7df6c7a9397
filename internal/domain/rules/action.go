package rules

// ActionType names the state mutation an effect performs.
type ActionType string

const (
	// Movement
	MoveRelative  ActionType = "MOVE_RELATIVE"
	Teleport      ActionType = "TELEPORT"
	MoveToTile    ActionType = "MOVE_TO_TILE"
	SwapPositions ActionType = "SWAP_POSITIONS"
	BackToStart   ActionType = "BACK_TO_START"

	// Flow, consumed by the turn manager
	SkipTurn  ActionType = "SKIP_TURN"
	ExtraTurn ActionType = "EXTRA_TURN"

	// Stats
	ModifyScore ActionType = "MODIFY_SCORE"
	ModifyStat  ActionType = "MODIFY_STAT"
)

var actions = map[ActionType]bool{
	MoveRelative:  true,
	Teleport:      true,
	MoveToTile:    true,
	SwapPositions: true,
	BackToStart:   true,
	SkipTurn:      true,
	ExtraTurn:     true,
	ModifyScore:   true,
	ModifyStat:    true,
}

// Known reports whether the engine understands a.
func (a ActionType) Known() bool {
	return actions[a]
}

// FlowControl reports whether a only signals the turn manager.
func (a ActionType) FlowControl() bool {
	return a == SkipTurn || a == ExtraTurn
}

// Target selects which players an effect applies to.
type Target string

const (
	TargetSelf   Target = "self"
	TargetAll    Target = "all"
	TargetOthers Target = "others"
)

// Normalize maps the empty target to self.
func (t Target) Normalize() Target {
	if t == "" {
		return TargetSelf
	}
	return t
}

// Known reports whether t is a declared target.
func (t Target) Known() bool {
	switch t.Normalize() {
	case TargetSelf, TargetAll, TargetOthers:
		return true
	}
	return false
}
