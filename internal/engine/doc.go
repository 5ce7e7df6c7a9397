// Package engine is the rules-resolution core of the board game.
//
// Given a player's dice roll it runs the pre-move, move, and landing phases,
// matching and ordering the rules of the room and applying their effects on
// a sandboxed copy of the game state.
//
// ARCHITECTURAL RULE: The engine never mutates a caller's game.State and
// never fails. Every problem is reported as a RuleLog entry, and the audit
// trail of one resolution is the returned log slice.
// This package is PURE and must NOT import any infrastructure packages
// other than the logger.
package engine
