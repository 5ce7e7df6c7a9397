// Package session manages rooms around the rules engine: the room
// registry, rosters, turn legality, circular turn rotation, and win
// detection. It is the only caller of engine.ResolveDiceRoll in the server
// and serializes resolutions per room.
package session
