package session

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrRoomFull        = errors.New("room is full")
	ErrGameFinished    = errors.New("game is finished")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrPlayerNotInRoom = errors.New("player is not in this room")
	ErrAlreadyJoined   = errors.New("player already joined")
	ErrInvalidDice     = errors.New("dice value out of range")
	ErrEmptyShout      = errors.New("shout message is empty")
)
