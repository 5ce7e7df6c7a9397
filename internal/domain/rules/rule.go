package rules

import (
	"errors"
	"fmt"
	"time"
)

// Effect is one atomic mutation carried by a rule.
type Effect struct {
	Type   ActionType `json:"type" yaml:"type" toml:"type"`
	Value  Value      `json:"value" yaml:"value" toml:"value"`
	Target Target     `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
}

// Rule binds a trigger, an optional tile, and an ordered list of effects.
// A rule without TileIndex is global for its trigger.
type Rule struct {
	ID        string      `json:"id" yaml:"id" toml:"id"`
	Title     string      `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Trigger   TriggerType `json:"trigger" yaml:"trigger" toml:"trigger"`
	TileIndex *int        `json:"tile_index,omitempty" yaml:"tile_index,omitempty" toml:"tile_index,omitempty"`
	Priority  *int        `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitzero" yaml:"created_at,omitempty" toml:"created_at,omitempty"`
	Effects   []Effect    `json:"effects" yaml:"effects" toml:"effects"`

	// Conditions must all hold for the rule to match. Empty means always.
	Conditions []Condition `json:"-" yaml:"-" toml:"-"`
}

// Global reports whether the rule fires regardless of tile.
func (r Rule) Global() bool {
	return r.TileIndex == nil
}

// BoundTo reports whether the rule is bound to tile index.
func (r Rule) BoundTo(index int) bool {
	return r.TileIndex != nil && *r.TileIndex == index
}

// Name returns the title when present, else the id.
func (r Rule) Name() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// Facts is the read-only view of game state a Condition may inspect.
type Facts interface {
	PlayerPosition(playerID string) (int, bool)
	PlayerScore(playerID string) (int, bool)
	BoardLength() int
}

// Event describes the occurrence a rule is being matched against.
type Event struct {
	Trigger  TriggerType
	PlayerID string
	Position int
}

// Condition is an extra predicate a rule must satisfy to be matched.
type Condition interface {
	Holds(facts Facts, event Event) bool
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc func(facts Facts, event Event) bool

// Holds calls f.
func (f ConditionFunc) Holds(facts Facts, event Event) bool {
	return f(facts, event)
}

// Validation errors.
var (
	ErrMissingID      = errors.New("rule id is required")
	ErrUnknownTrigger = errors.New("unknown trigger")
	ErrUnknownTarget  = errors.New("unknown effect target")
	ErrNegativeTile   = errors.New("tile index must not be negative")
)

// Validate checks the structural fields of r. Unknown action types are not
// an error: the engine logs and skips them at resolution time.
func Validate(r Rule) error {
	if r.ID == "" {
		return ErrMissingID
	}
	if !r.Trigger.Known() {
		return fmt.Errorf("rule %s: %w %q", r.ID, ErrUnknownTrigger, r.Trigger)
	}
	if r.TileIndex != nil && *r.TileIndex < 0 {
		return fmt.Errorf("rule %s: %w", r.ID, ErrNegativeTile)
	}
	for i, e := range r.Effects {
		if !e.Target.Known() {
			return fmt.Errorf("rule %s effect %d: %w %q", r.ID, i, ErrUnknownTarget, e.Target)
		}
	}
	return nil
}

// Lint returns non-fatal findings about r.
func Lint(r Rule) []string {
	var findings []string
	if len(r.Effects) == 0 {
		findings = append(findings, fmt.Sprintf("rule %s has no effects", r.ID))
	}
	for i, e := range r.Effects {
		if !e.Type.Known() {
			findings = append(findings, fmt.Sprintf("rule %s effect %d: unknown action %q will be skipped", r.ID, i, e.Type))
		}
		if t := e.Target.Normalize(); t != TargetSelf {
			findings = append(findings, fmt.Sprintf("rule %s effect %d: target %q is not supported yet", r.ID, i, t))
		}
	}
	if r.TileIndex != nil && !r.Trigger.Positional() {
		findings = append(findings, fmt.Sprintf("rule %s: tile_index is ignored for %s", r.ID, r.Trigger))
	}
	return findings
}

// Tile is a convenience for building a TileIndex.
func Tile(index int) *int {
	return &index
}
