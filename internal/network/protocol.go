package network

import (
	"encoding/json"
	"errors"

	"github.com/MRamiBalles/ShiftEngine/server/internal/session"
)

// Client to server message types.
const (
	MsgJoinRoom  = "join_room"
	MsgLeaveRoom = "leave_room"
	MsgRollDice  = "roll_dice"
	MsgResetRoom = "reset_room"
	MsgPingTest  = "ping_test"
	MsgSendShout = "send_shout"
)

// Server to client message types. Feed events are forwarded under their
// event type, which covers game_state_sync, player_joined_room,
// dice_resolved and incoming_shout.
const (
	MsgRoomJoined = "room_joined"
	MsgPong       = "pong_response"
	MsgError      = "error"
)

// Wire error codes.
const (
	CodeNotYourTurn    = "NOT_YOUR_TURN"
	CodeGameFinished   = "GAME_FINISHED"
	CodeRoomFull       = "ROOM_FULL"
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeNotInRoom      = "NOT_IN_ROOM"
	CodePlayerTaken    = "PLAYER_TAKEN"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeInternal       = "INTERNAL"
)

// Envelope is every frame sent over the socket in either direction.
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is the server side of Envelope, carrying a payload value.
type outbound struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// JoinRequest is the optional payload of join_room. Without a player id the
// connection id is used.
type JoinRequest struct {
	PlayerID string `json:"player_id,omitempty"`
}

// ShoutRequest is the payload of send_shout.
type ShoutRequest struct {
	Message string `json:"message"`
}

// RoomJoined is sent to the joining client only.
type RoomJoined struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	State    any    `json:"state"`
}

// Pong answers ping_test.
type Pong struct {
	Message    string `json:"message"`
	ServerTime string `json:"server_time"`
}

// ErrorPayload is the payload of an error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCode maps session errors to wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrNotYourTurn):
		return CodeNotYourTurn
	case errors.Is(err, session.ErrGameFinished):
		return CodeGameFinished
	case errors.Is(err, session.ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, session.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, session.ErrPlayerNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, session.ErrInvalidRoomID),
		errors.Is(err, session.ErrInvalidDice),
		errors.Is(err, session.ErrEmptyShout):
		return CodeInvalidMessage
	}
	return CodeInternal
}
