// Package player defines a participant on the board.
// This package is PURE and must NOT import any infrastructure packages.
package player

// Color identifies a player's pawn on screen.
type Color string

const (
	ColorCyan   Color = "cyan"
	ColorViolet Color = "violet"
	ColorAmber  Color = "amber"
	ColorLime   Color = "lime"
)

// palette is the join-order color assignment.
var palette = []Color{ColorCyan, ColorViolet, ColorAmber, ColorLime}

// Player is identified by ID; Position and Score are the only fields the
// rule engine mutates.
type Player struct {
	ID       string `json:"id"`
	Color    Color  `json:"color"`
	Position int    `json:"position"`
	Score    int    `json:"score"`
}

// New creates a player on the start tile with a zero score.
func New(id string, color Color) Player {
	return Player{ID: id, Color: color}
}

// ColorFor returns the color handed to the n-th player (0-based) to join.
func ColorFor(n int) Color {
	if n < 0 {
		n = 0
	}
	return palette[n%len(palette)]
}
