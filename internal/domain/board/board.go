// Package board defines the linear track the players move along.
// This package is PURE and must NOT import any infrastructure packages.
package board

import "fmt"

// DefaultLength is the number of tiles on a freshly generated board.
const DefaultLength = 20

// specialEvery marks every Nth tile as special.
const specialEvery = 5

// TileKind describes what a tile looks like to the players.
type TileKind string

const (
	KindStart   TileKind = "start"
	KindEnd     TileKind = "end"
	KindSpecial TileKind = "special"
	KindNormal  TileKind = "normal"
)

// Tile is one square on the board. Tiles never change once generated.
// The rule engine does not consult Kind; rules carry their own tile binding.
type Tile struct {
	ID    string   `json:"id"`
	Index int      `json:"index"`
	Kind  TileKind `json:"type"`
}

// Generate builds a linear board of the given length.
// Index 0 is the start, the last index is the end, and every fifth tile in
// between is special.
func Generate(length int) []Tile {
	if length <= 0 {
		length = DefaultLength
	}

	tiles := make([]Tile, length)
	for i := range tiles {
		tiles[i] = Tile{
			ID:    fmt.Sprintf("tile-%d", i),
			Index: i,
			Kind:  kindAt(i, length),
		}
	}
	return tiles
}

func kindAt(i, length int) TileKind {
	switch {
	case i == 0:
		return KindStart
	case i == length-1:
		return KindEnd
	case i%specialEvery == 0:
		return KindSpecial
	default:
		return KindNormal
	}
}
