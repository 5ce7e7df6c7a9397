package network

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ShiftEngine/server/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
	// Upper bound for one session operation triggered by a message.
	opTimeout = 5 * time.Second
)

// Client is one WebSocket connection. Only the read goroutine touches
// playerID and roomID.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	playerID string
	roomID   string

	windowStart time.Time
	windowCount int
}

// NewClient wraps conn. The connection id doubles as the default player id.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.opts.ClientSendBuffer),
		id:       id,
		playerID: id,
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Register adds the client to the hub.
func (c *Client) Register() bool {
	return send(c.hub, c.hub.register, c)
}

// ReadPump reads frames until the connection fails. Players stay in their
// room after a disconnect so they can rejoin.
func (c *Client) ReadPump() {
	defer func() {
		send(c.hub, c.hub.unregister, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("WebSocket client %s read error: %v", c.id, err)
				c.hub.metrics.RecordWSError()
			}
			return
		}
		c.hub.metrics.RecordWSMessage(true)

		if !c.allow(time.Now()) {
			c.replyError(CodeRateLimited, "too many messages")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.replyError(CodeInvalidMessage, "malformed envelope")
			continue
		}
		c.handle(env)
	}
}

// allow applies a fixed one-second window to incoming frames.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= c.hub.opts.MaxMessagesPerSecond
}

func (c *Client) handle(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var err error
	switch env.Type {
	case MsgJoinRoom:
		err = c.handleJoin(ctx, env)
	case MsgLeaveRoom:
		err = c.handleLeave(ctx, env)
	case MsgRollDice:
		err = c.handleRoll(ctx, env)
	case MsgResetRoom:
		err = c.handleReset(ctx, env)
	case MsgPingTest:
		c.reply(MsgPong, "", Pong{Message: "Pong!", ServerTime: time.Now().Format(time.TimeOnly)})
	case MsgSendShout:
		err = c.handleShout(env)
	default:
		c.replyError(CodeInvalidMessage, fmt.Sprintf("unknown message type %q", env.Type))
		return
	}
	if err != nil {
		code := errorCode(err)
		if code == CodeInternal {
			c.hub.logger.Errorf("%s from %s failed: %v", env.Type, c.playerID, err)
			c.hub.metrics.RecordWSError()
		}
		c.replyError(code, err.Error())
	}
}

func (c *Client) handleJoin(ctx context.Context, env Envelope) error {
	if env.RoomID == "" {
		c.replyError(CodeInvalidMessage, "room_id is required")
		return nil
	}
	var req JoinRequest
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.replyError(CodeInvalidMessage, "bad payload")
			return nil
		}
	}
	playerID := c.playerID
	if req.PlayerID != "" {
		playerID = req.PlayerID
	}

	// subscribe first so the join broadcast reaches this client too
	previous := seat{roomID: c.roomID, playerID: c.playerID}
	if !c.subscribe(seat{roomID: env.RoomID, playerID: playerID}) {
		c.replyError(CodePlayerTaken, fmt.Sprintf("player %s is already connected to room %s", playerID, env.RoomID))
		return nil
	}
	room, state, err := c.hub.registry.JoinOrCreate(ctx, env.RoomID, playerID)
	if err != nil {
		c.subscribe(previous)
		return err
	}
	c.roomID = room.ID()
	c.playerID = playerID
	c.reply(MsgRoomJoined, c.roomID, RoomJoined{RoomID: c.roomID, PlayerID: playerID, State: state})
	return nil
}

func (c *Client) handleLeave(ctx context.Context, env Envelope) error {
	room, err := c.joinedRoom(env)
	if err != nil {
		return err
	}
	if _, err := room.Leave(ctx, c.playerID); err != nil {
		return err
	}
	c.subscribe(seat{})
	c.roomID = ""
	return nil
}

// subscribe asks the hub to move c to s and reports whether it was granted.
func (c *Client) subscribe(s seat) bool {
	result := make(chan bool, 1)
	if !send(c.hub, c.hub.subscribe, subscription{client: c, seat: s, result: result}) {
		return false
	}
	select {
	case ok := <-result:
		return ok
	case <-c.hub.done:
		return false
	}
}

func (c *Client) handleRoll(ctx context.Context, env Envelope) error {
	room, err := c.joinedRoom(env)
	if err != nil {
		return err
	}
	_, err = room.Roll(ctx, c.playerID)
	return err
}

func (c *Client) handleReset(ctx context.Context, env Envelope) error {
	room, err := c.joinedRoom(env)
	if err != nil {
		return err
	}
	_, err = room.Reset(ctx)
	return err
}

func (c *Client) handleShout(env Envelope) error {
	var req ShoutRequest
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		c.replyError(CodeInvalidMessage, "bad payload")
		return nil
	}
	room, err := c.joinedRoom(env)
	if err != nil {
		return err
	}
	return room.Shout(c.playerID, req.Message)
}

// joinedRoom resolves the room a message targets: the envelope room when
// given, otherwise the room the client joined.
func (c *Client) joinedRoom(env Envelope) (*session.Room, error) {
	roomID := env.RoomID
	if roomID == "" {
		roomID = c.roomID
	}
	if roomID == "" || roomID != c.roomID {
		return nil, fmt.Errorf("%s: join room %q first: %w", c.playerID, roomID, session.ErrPlayerNotInRoom)
	}
	return c.hub.registry.Get(roomID)
}

func (c *Client) reply(msgType, roomID string, payload any) {
	data, err := json.Marshal(outbound{Type: msgType, RoomID: roomID, Payload: payload})
	if err != nil {
		c.hub.logger.Errorf("Failed to encode %s for %s: %v", msgType, c.id, err)
		return
	}
	send(c.hub, c.hub.outbound, delivery{client: c, data: data})
}

func (c *Client) replyError(code, message string) {
	c.reply(MsgError, c.roomID, ErrorPayload{Code: code, Message: message})
}

// WritePump writes queued frames, one per message, and pings the peer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
